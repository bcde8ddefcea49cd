package peer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/dmitrijs2005/ttychat/internal/logging"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeNet links fake connections by the id carried in their SDP, so two
// negotiators in one process can complete a handshake.
type fakeNet struct {
	mu  sync.Mutex
	pcs map[string]*fakePC
	seq int
}

func newFakeNet() *fakeNet {
	return &fakeNet{pcs: map[string]*fakePC{}}
}

func (fn *fakeNet) factory(cfg webrtc.Configuration) (PeerConnection, error) {
	return fn.newPC(cfg), nil
}

func (fn *fakeNet) newPC(cfg webrtc.Configuration) *fakePC {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.seq++
	id := fmt.Sprintf("pc%d", fn.seq)
	pc := &fakePC{net: fn, id: id, cfg: cfg}
	fn.pcs[id] = pc
	return pc
}

func (fn *fakeNet) lookup(id string) *fakePC {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	return fn.pcs[id]
}

type fakePC struct {
	net *fakeNet
	id  string
	cfg webrtc.Configuration

	mu     sync.Mutex
	onDC   func(DataChannel)
	onICE  func(*webrtc.ICECandidateInit)
	local  *webrtc.SessionDescription
	remote *webrtc.SessionDescription
	added  []string
	early  int
	dc     *fakeDC
	closed bool
}

func (p *fakePC) CreateDataChannel(label string) (DataChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dc = &fakeDC{label: label}
	return p.dc, nil
}

func (p *fakePC) OnDataChannel(f func(DataChannel)) {
	p.mu.Lock()
	p.onDC = f
	p.mu.Unlock()
}

func (p *fakePC) OnICECandidate(f func(*webrtc.ICECandidateInit)) {
	p.mu.Lock()
	p.onICE = f
	p.mu.Unlock()
}

func (p *fakePC) OnConnectionStateChange(func(webrtc.PeerConnectionState)) {}

func (p *fakePC) CreateOffer() (webrtc.SessionDescription, error) {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "offer:" + p.id}, nil
}

func (p *fakePC) CreateAnswer() (webrtc.SessionDescription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.remote == nil {
		return webrtc.SessionDescription{}, errors.New("no remote offer")
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "answer:" + p.id}, nil
}

func (p *fakePC) SetLocalDescription(sd webrtc.SessionDescription) error {
	p.mu.Lock()
	p.local = &sd
	onICE := p.onICE
	p.mu.Unlock()

	if onICE != nil {
		go func() {
			onICE(&webrtc.ICECandidateInit{Candidate: "candidate:" + p.id})
			onICE(nil)
		}()
	}
	return nil
}

func (p *fakePC) SetRemoteDescription(sd webrtc.SessionDescription) error {
	p.mu.Lock()
	if p.remote != nil {
		p.mu.Unlock()
		return errors.New("remote description already set")
	}
	p.remote = &sd
	dc := p.dc
	p.mu.Unlock()

	if sd.Type != webrtc.SDPTypeAnswer || dc == nil {
		return nil
	}
	_, id, _ := strings.Cut(sd.SDP, ":")
	callee := p.net.lookup(id)
	if callee == nil {
		return nil
	}

	remote := &fakeDC{label: dc.label}
	dc.link(remote)
	go func() {
		callee.mu.Lock()
		onDC := callee.onDC
		callee.mu.Unlock()
		if onDC != nil {
			onDC(remote)
		}
		dc.fireOpen()
		remote.fireOpen()
	}()
	return nil
}

func (p *fakePC) AddICECandidate(c webrtc.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.remote == nil {
		p.early++
		return errors.New("remote description not set")
	}
	p.added = append(p.added, c.Candidate)
	return nil
}

func (p *fakePC) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePC) snapshot() (added []string, early int, closed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.added...), p.early, p.closed
}

type fakeDC struct {
	label string

	mu        sync.Mutex
	onOpen    func()
	onClose   func()
	onMessage func(Message)
	peer      *fakeDC
	open      bool
	closed    bool
}

func (d *fakeDC) link(other *fakeDC) {
	d.mu.Lock()
	d.peer = other
	d.mu.Unlock()
	other.mu.Lock()
	other.peer = d
	other.mu.Unlock()
}

func (d *fakeDC) fireOpen() {
	d.mu.Lock()
	d.open = true
	f := d.onOpen
	d.mu.Unlock()
	if f != nil {
		f()
	}
}

func (d *fakeDC) Label() string { return d.label }

func (d *fakeDC) OnOpen(f func()) {
	d.mu.Lock()
	d.onOpen = f
	d.mu.Unlock()
}

func (d *fakeDC) OnClose(f func()) {
	d.mu.Lock()
	d.onClose = f
	d.mu.Unlock()
}

func (d *fakeDC) OnMessage(f func(Message)) {
	d.mu.Lock()
	d.onMessage = f
	d.mu.Unlock()
}

func (d *fakeDC) deliver(m Message) error {
	d.mu.Lock()
	if !d.open || d.peer == nil {
		d.mu.Unlock()
		return errors.New("channel not open")
	}
	peer := d.peer
	d.mu.Unlock()

	peer.mu.Lock()
	f := peer.onMessage
	peer.mu.Unlock()
	if f != nil {
		f(m)
	}
	return nil
}

func (d *fakeDC) Send(b []byte) error {
	return d.deliver(Message{Data: append([]byte(nil), b...)})
}

func (d *fakeDC) SendText(s string) error {
	return d.deliver(Message{IsText: true, Data: []byte(s)})
}

func (d *fakeDC) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.open = false
	peer, f := d.peer, d.onClose
	d.mu.Unlock()

	if f != nil {
		f()
	}
	if peer != nil {
		_ = peer.Close()
	}
	return nil
}
