// Package peer negotiates the single data channel between two paired
// peers. Signaling goes through a signaling.Channel; the media layer is
// pion/webrtc behind the PeerConnection interface.
package peer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/dmitrijs2005/ttychat/internal/logging"
	"github.com/dmitrijs2005/ttychat/internal/signaling"
)

const (
	ChannelLabel   = "fileSendChannel"
	DefaultTimeout = 60 * time.Second
)

var DefaultSTUNServers = []string{
	"stun:stun1.l.google.com:19302",
	"stun:stun2.l.google.com:19302",
}

var (
	ErrNegotiationTimeout = errors.New("peer negotiation timed out")
	ErrAlreadyConnecting  = errors.New("peer connection already in progress")
	ErrChannelNotOpen     = errors.New("data channel is not open")
)

type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Config struct {
	STUNServers []string
	// Timeout bounds Connect when the caller's context has no deadline.
	Timeout time.Duration
}

func (c Config) webrtcConfig() webrtc.Configuration {
	servers := c.STUNServers
	if len(servers) == 0 {
		servers = DefaultSTUNServers
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: servers}},
	}
}

// Signaler is the rendezvous the negotiator trades descriptions through.
// *signaling.Channel implements it.
type Signaler interface {
	OpenOrJoin(ctx context.Context, sessionID string) (signaling.Role, *signaling.Room, error)
	PublishOffer(ctx context.Context, sd signaling.SessionDescription) error
	PublishAnswer(ctx context.Context, sd signaling.SessionDescription) error
	AddCandidate(ctx context.Context, r signaling.Role, c signaling.Candidate) error
	WatchRoom(ctx context.Context) (<-chan signaling.RoomUpdate, error)
	WatchCandidates(ctx context.Context, r signaling.Role) (<-chan signaling.Candidate, error)
	Wipe(ctx context.Context) error
}

// Negotiator owns one peer connection at a time. All fields below mu are
// guarded by it; pion callbacks run on their own goroutines.
type Negotiator struct {
	cfg       Config
	signal    Signaler
	factory   ConnectionFactory
	sessionID string
	logger    logging.Logger

	onMessage func(Message)
	onState   func(State)

	mu        sync.Mutex
	state     State
	role      signaling.Role
	joined    bool
	pc        PeerConnection
	dc        DataChannel
	remoteSet bool
	pending   []webrtc.ICECandidateInit
	opened    chan struct{}
	openOnce  *sync.Once
	failed    chan error
	stopWatch context.CancelFunc
}

func NewNegotiator(cfg Config, s Signaler, f ConnectionFactory, sessionID string, l logging.Logger) *Negotiator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if f == nil {
		f = NewPionConnection
	}
	return &Negotiator{
		cfg:       cfg,
		signal:    s,
		factory:   f,
		sessionID: sessionID,
		logger:    l.With("module", "peer"),
	}
}

// OnMessage sets the frame handler. Call before Connect.
func (n *Negotiator) OnMessage(f func(Message)) { n.onMessage = f }

// OnStateChange sets the state observer. Call before Connect.
func (n *Negotiator) OnStateChange(f func(State)) { n.onState = f }

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Negotiator) Role() signaling.Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

func (n *Negotiator) setStateLocked(s State) {
	if n.state == s {
		return
	}
	n.state = s
	if n.onState != nil {
		go n.onState(s)
	}
}

// settle ends a handshake in s. It reports false when Cleanup already
// closed the attempt, leaving the state Closed.
func (n *Negotiator) settle(s State) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateNegotiating {
		return false
	}
	n.setStateLocked(s)
	return true
}

// Connect opens or joins the room and completes the handshake. It returns
// once the data channel is open. When the deadline passes first the state
// becomes Failed and ErrNegotiationTimeout is returned; Cleanup releases
// what was built so far.
func (n *Negotiator) Connect(ctx context.Context) error {
	n.mu.Lock()
	switch n.state {
	case StateNegotiating, StateConnected:
		n.mu.Unlock()
		return ErrAlreadyConnecting
	case StateFailed, StateClosed:
		// a failed handshake or a channel the peer closed may still hold a
		// connection and running watchers
		n.mu.Unlock()
		if err := n.Cleanup(ctx); err != nil {
			n.logger.Warn(ctx, "cleanup before reconnect", "error", err)
		}
		n.mu.Lock()
		if n.state == StateNegotiating || n.state == StateConnected {
			n.mu.Unlock()
			return ErrAlreadyConnecting
		}
	}
	n.setStateLocked(StateNegotiating)
	n.opened = make(chan struct{})
	n.openOnce = &sync.Once{}
	n.failed = make(chan error, 1)
	opened, failed := n.opened, n.failed
	n.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	if err := n.start(ctx); err != nil {
		n.settle(StateFailed)
		return err
	}

	select {
	case <-opened:
		if !n.settle(StateConnected) {
			return ErrChannelNotOpen
		}
		n.logger.Info(ctx, "data channel open", "role", n.Role())
		return nil
	case err := <-failed:
		n.settle(StateFailed)
		return err
	case <-ctx.Done():
		n.settle(StateFailed)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrNegotiationTimeout
		}
		return ctx.Err()
	}
}

func (n *Negotiator) start(ctx context.Context) error {
	role, room, err := n.signal.OpenOrJoin(ctx, n.sessionID)
	if err != nil {
		return fmt.Errorf("open room: %w", err)
	}
	n.mu.Lock()
	n.role = role
	n.joined = true
	n.mu.Unlock()

	pc, err := n.factory(n.cfg.webrtcConfig())
	if err != nil {
		return fmt.Errorf("new peer connection: %w", err)
	}

	// Watchers outlive Connect: candidates keep trickling after the
	// channel opens.
	watchCtx, stop := context.WithCancel(context.Background())

	n.mu.Lock()
	if n.state != StateNegotiating {
		n.mu.Unlock()
		stop()
		_ = pc.Close()
		return fmt.Errorf("negotiation ended: %w", ErrChannelNotOpen)
	}
	n.pc = pc
	n.remoteSet = false
	n.pending = nil
	n.stopWatch = stop
	n.mu.Unlock()

	pc.OnICECandidate(func(c *webrtc.ICECandidateInit) {
		if c == nil {
			return
		}
		if err := n.signal.AddCandidate(watchCtx, role, fromICE(*c)); err != nil {
			n.logger.Warn(watchCtx, "publish candidate", "error", err)
		}
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		n.logger.Debug(watchCtx, "connection state", "state", s.String())
		if s != webrtc.PeerConnectionStateFailed {
			return
		}
		n.fail(fmt.Errorf("peer connection failed"))
		n.mu.Lock()
		if n.pc == pc && n.state == StateConnected {
			n.setStateLocked(StateFailed)
		}
		n.mu.Unlock()
	})

	if role == signaling.RoleCaller {
		dc, err := pc.CreateDataChannel(ChannelLabel)
		if err != nil {
			return fmt.Errorf("create data channel: %w", err)
		}
		n.attach(dc)

		offer, err := pc.CreateOffer()
		if err != nil {
			return fmt.Errorf("create offer: %w", err)
		}
		if err := pc.SetLocalDescription(offer); err != nil {
			return fmt.Errorf("set local offer: %w", err)
		}
		if err := n.signal.PublishOffer(ctx, toSignal(offer)); err != nil {
			return fmt.Errorf("publish offer: %w", err)
		}
	} else {
		pc.OnDataChannel(n.attach)
	}

	cands, err := n.signal.WatchCandidates(watchCtx, role.Remote())
	if err != nil {
		return fmt.Errorf("watch candidates: %w", err)
	}
	updates, err := n.signal.WatchRoom(watchCtx)
	if err != nil {
		return fmt.Errorf("watch room: %w", err)
	}

	go func() {
		for c := range cands {
			n.addRemoteCandidate(watchCtx, toICE(c))
		}
	}()
	go func() {
		for u := range updates {
			if u.Deleted || u.Room == nil {
				continue
			}
			n.handleRoom(watchCtx, u.Room)
		}
	}()

	if role == signaling.RoleCallee && room != nil {
		n.handleRoom(ctx, room)
	}
	return nil
}

// handleRoom applies the remote description once. A re-delivered room
// document is ignored after that.
func (n *Negotiator) handleRoom(ctx context.Context, room *signaling.Room) {
	n.mu.Lock()
	role := n.role
	n.mu.Unlock()

	switch {
	case role == signaling.RoleCaller && room.Answer != nil:
		if _, err := n.setRemote(ctx, *room.Answer); err != nil {
			n.fail(err)
		}
	case role == signaling.RoleCallee && room.Offer != nil:
		applied, err := n.setRemote(ctx, *room.Offer)
		if err != nil {
			n.fail(err)
			return
		}
		if !applied {
			return
		}
		if err := n.answer(ctx); err != nil {
			n.fail(err)
		}
	}
}

func (n *Negotiator) answer(ctx context.Context) error {
	n.mu.Lock()
	pc := n.pc
	n.mu.Unlock()
	if pc == nil {
		return nil
	}

	answer, err := pc.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local answer: %w", err)
	}
	if err := n.signal.PublishAnswer(ctx, toSignal(answer)); err != nil {
		return fmt.Errorf("publish answer: %w", err)
	}
	return nil
}

// setRemote sets the remote description and flushes the candidate queue
// in arrival order. It reports false when a description was already set.
func (n *Negotiator) setRemote(ctx context.Context, sd signaling.SessionDescription) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pc == nil || n.remoteSet {
		return false, nil
	}
	if err := n.pc.SetRemoteDescription(fromSignal(sd)); err != nil {
		return false, fmt.Errorf("set remote %s: %w", sd.Type, err)
	}
	n.remoteSet = true

	for _, c := range n.pending {
		if err := n.pc.AddICECandidate(c); err != nil {
			n.logger.Warn(ctx, "add queued candidate", "error", err)
		}
	}
	n.pending = nil
	return true, nil
}

func (n *Negotiator) addRemoteCandidate(ctx context.Context, c webrtc.ICECandidateInit) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pc == nil {
		return
	}
	if !n.remoteSet {
		n.pending = append(n.pending, c)
		return
	}
	if err := n.pc.AddICECandidate(c); err != nil {
		n.logger.Warn(ctx, "add candidate", "error", err)
	}
}

func (n *Negotiator) attach(dc DataChannel) {
	n.mu.Lock()
	if n.pc == nil {
		n.mu.Unlock()
		_ = dc.Close()
		return
	}
	n.dc = dc
	opened, once := n.opened, n.openOnce
	n.mu.Unlock()

	dc.OnOpen(func() {
		once.Do(func() { close(opened) })
	})
	dc.OnClose(func() {
		n.mu.Lock()
		if n.dc == dc && n.state == StateConnected {
			n.setStateLocked(StateClosed)
		}
		n.mu.Unlock()
	})
	dc.OnMessage(func(m Message) {
		if n.onMessage != nil {
			n.onMessage(m)
		}
	})
}

func (n *Negotiator) fail(err error) {
	n.mu.Lock()
	ch := n.failed
	n.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func (n *Negotiator) channel() (DataChannel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dc == nil || n.state != StateConnected {
		return nil, ErrChannelNotOpen
	}
	return n.dc, nil
}

// Send writes a binary frame on the open data channel.
func (n *Negotiator) Send(data []byte) error {
	dc, err := n.channel()
	if err != nil {
		return err
	}
	return dc.Send(data)
}

// SendText writes a text frame on the open data channel.
func (n *Negotiator) SendText(s string) error {
	dc, err := n.channel()
	if err != nil {
		return err
	}
	return dc.SendText(s)
}

// Cleanup closes the channel and the connection, drops queued candidates
// and wipes the room. Calling it again is a no-op.
func (n *Negotiator) Cleanup(ctx context.Context) error {
	n.mu.Lock()
	if n.stopWatch != nil {
		n.stopWatch()
		n.stopWatch = nil
	}
	dc, pc, joined := n.dc, n.pc, n.joined
	n.dc, n.pc, n.joined = nil, nil, false
	n.pending = nil
	n.remoteSet = false
	if n.state != StateIdle {
		n.setStateLocked(StateClosed)
	}
	n.mu.Unlock()

	if dc != nil {
		_ = dc.Close()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			n.logger.Warn(ctx, "close peer connection", "error", err)
		}
	}
	if !joined {
		return nil
	}
	if err := n.signal.Wipe(ctx); err != nil {
		n.logger.Warn(ctx, "wipe room", "error", err)
		return err
	}
	return nil
}

func toSignal(sd webrtc.SessionDescription) signaling.SessionDescription {
	return signaling.SessionDescription{Type: sd.Type.String(), SDP: sd.SDP}
}

func fromSignal(sd signaling.SessionDescription) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.NewSDPType(sd.Type), SDP: sd.SDP}
}

func toICE(c signaling.Candidate) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}

func fromICE(c webrtc.ICECandidateInit) signaling.Candidate {
	return signaling.Candidate{
		Candidate:        c.Candidate,
		SDPMid:           c.SDPMid,
		SDPMLineIndex:    c.SDPMLineIndex,
		UsernameFragment: c.UsernameFragment,
	}
}
