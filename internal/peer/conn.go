package peer

import (
	"github.com/pion/webrtc/v4"
)

// Message is one data channel frame.
type Message struct {
	IsText bool
	Data   []byte
}

// DataChannel is the subset of a pion data channel the negotiator uses.
type DataChannel interface {
	Label() string
	OnOpen(f func())
	OnClose(f func())
	OnMessage(f func(Message))
	Send(data []byte) error
	SendText(s string) error
	Close() error
}

// PeerConnection is the subset of a pion peer connection the negotiator
// uses. OnICECandidate reports nil once gathering is complete.
type PeerConnection interface {
	CreateDataChannel(label string) (DataChannel, error)
	OnDataChannel(f func(DataChannel))
	OnICECandidate(f func(*webrtc.ICECandidateInit))
	OnConnectionStateChange(f func(webrtc.PeerConnectionState))
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(sd webrtc.SessionDescription) error
	SetRemoteDescription(sd webrtc.SessionDescription) error
	AddICECandidate(c webrtc.ICECandidateInit) error
	Close() error
}

// ConnectionFactory builds a peer connection for one negotiation.
type ConnectionFactory func(cfg webrtc.Configuration) (PeerConnection, error)

// NewPionConnection is the production ConnectionFactory.
func NewPionConnection(cfg webrtc.Configuration) (PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &pionConn{pc: pc}, nil
}

type pionConn struct {
	pc *webrtc.PeerConnection
}

func (p *pionConn) CreateDataChannel(label string) (DataChannel, error) {
	dc, err := p.pc.CreateDataChannel(label, nil)
	if err != nil {
		return nil, err
	}
	return &pionChannel{dc: dc}, nil
}

func (p *pionConn) OnDataChannel(f func(DataChannel)) {
	p.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		f(&pionChannel{dc: dc})
	})
}

func (p *pionConn) OnICECandidate(f func(*webrtc.ICECandidateInit)) {
	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			f(nil)
			return
		}
		init := c.ToJSON()
		f(&init)
	})
}

func (p *pionConn) OnConnectionStateChange(f func(webrtc.PeerConnectionState)) {
	p.pc.OnConnectionStateChange(f)
}

func (p *pionConn) CreateOffer() (webrtc.SessionDescription, error) {
	return p.pc.CreateOffer(nil)
}

func (p *pionConn) CreateAnswer() (webrtc.SessionDescription, error) {
	return p.pc.CreateAnswer(nil)
}

func (p *pionConn) SetLocalDescription(sd webrtc.SessionDescription) error {
	return p.pc.SetLocalDescription(sd)
}

func (p *pionConn) SetRemoteDescription(sd webrtc.SessionDescription) error {
	return p.pc.SetRemoteDescription(sd)
}

func (p *pionConn) AddICECandidate(c webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(c)
}

func (p *pionConn) Close() error {
	return p.pc.Close()
}

type pionChannel struct {
	dc *webrtc.DataChannel
}

func (c *pionChannel) Label() string           { return c.dc.Label() }
func (c *pionChannel) OnOpen(f func())         { c.dc.OnOpen(f) }
func (c *pionChannel) OnClose(f func())        { c.dc.OnClose(f) }
func (c *pionChannel) Send(b []byte) error     { return c.dc.Send(b) }
func (c *pionChannel) SendText(s string) error { return c.dc.SendText(s) }
func (c *pionChannel) Close() error            { return c.dc.Close() }

func (c *pionChannel) OnMessage(f func(Message)) {
	c.dc.OnMessage(func(m webrtc.DataChannelMessage) {
		f(Message{IsText: m.IsString, Data: m.Data})
	})
}
