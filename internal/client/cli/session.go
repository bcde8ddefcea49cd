package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/chat"
	"github.com/dmitrijs2005/ttychat/internal/client/auth"
	"github.com/dmitrijs2005/ttychat/internal/client/models"
	"github.com/dmitrijs2005/ttychat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/ttychat/internal/client/store"
	"github.com/dmitrijs2005/ttychat/internal/cryptox"
	"github.com/dmitrijs2005/ttychat/internal/filex"
	"github.com/dmitrijs2005/ttychat/internal/peer"
	"github.com/dmitrijs2005/ttychat/internal/signaling"
	"github.com/dmitrijs2005/ttychat/internal/transfer"
)

const sessionCleanupTimeout = 5 * time.Second

type replState int

const (
	stateGuest replState = iota
	stateChat
	stateDecoy
)

// session is everything that exists only while the real password is in
// effect. It is torn down as a whole.
type session struct {
	id      string
	user    string
	secret  string
	pairing string

	codec      *cryptox.Codec
	chat       *chat.Stream
	negotiator *peer.Negotiator
	sender     *transfer.Sender
	receiver   *transfer.Receiver

	// ctx lives until Logout.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (a *App) state() replState {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.sess != nil:
		return stateChat
	case a.decoy != "":
		return stateDecoy
	}
	return stateGuest
}

func (a *App) current() *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

func (a *App) decoyUser() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.decoy
}

func (a *App) remember(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append([]string{line}, a.history...)
	if len(a.history) > 50 {
		a.history = a.history[:50]
	}
}

func (a *App) recent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.history...)
}

// Login runs the password challenge behind "sudo connect".
func (a *App) Login(ctx context.Context, password string) error {
	if a.auth == nil {
		return auth.ErrIncorrectPassword
	}
	s, mode, err := a.auth.Authenticate(password)
	if err != nil {
		return err
	}

	if mode == auth.ModeDecoy {
		a.enterDecoy(s.Username)
		printlnFn(fmt.Sprintf("Authentication successful. Welcome, %s.", s.Username))
		printlnFn("Connected to secure server kernel v3.2.1.")
		printlnFn("Type 'logout' to disconnect session.")
		printlnFn("---")
		return nil
	}
	return a.startSession(ctx, s)
}

func (a *App) enterDecoy(user string) {
	a.mu.Lock()
	a.decoy = user
	a.mu.Unlock()
	a.logger.Info(context.Background(), "entered decoy shell")
}

// documentStore authenticates this session with the server. Without a
// server the session runs on an in-process store.
func (a *App) documentStore(ctx context.Context, sessionID string) (store.DocumentStore, bool) {
	if a.remote != nil && a.Mode() != ModeDisabled {
		actx, cancel := context.WithTimeout(ctx, sessionCleanupTimeout)
		err := a.remote.Authenticate(actx, sessionID)
		cancel()
		if err == nil {
			a.setMode(ModeOnline)
			return a.remote, true
		}
		a.logger.Warn(ctx, "server authentication failed", "error", err)
		a.setMode(ModeDisabled)
	}
	printlnFn("[System] Server unavailable. Messages stay on this terminal.")
	return store.NewMemory(), false
}

// pairingToken picks the room identity: the configured token, then a
// token saved with /pair, then the shared secret.
func (a *App) pairingToken(ctx context.Context, secret string) string {
	if a.config.PairingToken != "" {
		return a.config.PairingToken
	}
	saved, err := metadata.GetString(ctx, a.db.Metadata, metadata.KeyPairingToken)
	if err != nil {
		a.logger.Warn(ctx, "read saved pairing token", "error", err)
	}
	if saved != "" {
		return saved
	}
	return secret
}

func (a *App) startSession(ctx context.Context, as auth.Session) error {
	docs, online := a.documentStore(ctx, as.ID)
	token := a.pairingToken(ctx, as.Secret)

	s := &session{
		id:       as.ID,
		user:     as.Username,
		secret:   as.Secret,
		pairing:  token,
		codec:    cryptox.NewCodec(as.Secret),
		receiver: transfer.NewReceiver(),
	}
	s.chat = chat.NewStream(docs, s.codec, a.notifier, a.logger)

	channel := signaling.NewChannel(docs, signaling.RoomName(token), a.logger)
	s.negotiator = peer.NewNegotiator(peer.Config{
		STUNServers: a.config.STUNServers,
		Timeout:     a.config.NegotiationTimeout,
	}, channel, a.factory, as.ID, a.logger)
	s.sender = transfer.NewSender(s.negotiator)

	sctx, cancel := context.WithCancel(ctx)
	s.ctx, s.cancel = sctx, cancel

	s.negotiator.OnMessage(func(m peer.Message) {
		if c, ok := s.receiver.HandleFrame(m.IsText, m.Data); ok {
			a.saveReceived(sctx, s, c)
		}
	})
	s.negotiator.OnStateChange(func(st peer.State) {
		a.logger.Info(sctx, "peer state changed", "state", st.String())
		switch st {
		case peer.StateConnected:
			printlnFn("[System] P2P: Direct connection established.")
		case peer.StateFailed:
			s.receiver.Reset()
			if sctx.Err() == nil {
				printlnFn("[System] P2P: Connection failed. Use /connect to retry.")
			}
		case peer.StateClosed:
			s.receiver.Reset()
		}
	})

	updates, err := s.chat.Subscribe(sctx)
	if err != nil {
		cancel()
		s.codec.Wipe()
		return fmt.Errorf("subscribe to chat: %w", err)
	}

	a.mu.Lock()
	a.sess = s
	a.decoy = ""
	a.mu.Unlock()

	printlnFn(fmt.Sprintf("Authentication successful. Welcome, %s.", s.user))
	printlnFn("Type '/logout' to disconnect session.")
	printlnFn("P2P: Connecting...")
	printlnFn("---")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		r := newRenderer(s.id)
		for msgs := range updates {
			for _, line := range r.update(msgs) {
				fmt.Fprintln(a.out, line)
			}
		}
	}()
	go func() {
		defer s.wg.Done()
		a.connectPeer(sctx, s)
	}()

	if online {
		a.registerPush(sctx)
	}
	return nil
}

func (a *App) connectPeer(ctx context.Context, s *session) {
	err := s.negotiator.Connect(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	a.logger.Warn(ctx, "peer connect failed", "error", err)
	if errors.Is(err, peer.ErrAlreadyConnecting) {
		printlnFn("[System] P2P: Already connecting.")
	}
}

// saveReceived writes a completed transfer to the downloads directory,
// indexes it and shows it on the matching chat entry.
func (a *App) saveReceived(ctx context.Context, s *session, c *transfer.Completed) {
	dir, err := filex.EnsureSubdDir(a.config.DownloadsDir)
	if err != nil {
		a.logger.Error(ctx, "downloads directory", "error", err)
		return
	}
	path, err := filex.SaveUnique(dir, c.Filename, c.Data)
	if err != nil {
		a.logger.Error(ctx, "save received file", "error", err, "id", c.ID)
		return
	}
	err = a.db.RecordReceived(ctx, &models.ReceivedFile{
		EntryID:    c.ID,
		Filename:   c.Filename,
		Filetype:   c.Filetype,
		LocalPath:  path,
		Size:       int64(len(c.Data)),
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn(ctx, "index received file", "error", err, "id", c.ID)
	}
	s.chat.MarkReceived(c.ID, c.Filetype, c.Filename, path)
	a.logger.Info(ctx, "file received", "id", c.ID, "bytes", len(c.Data))
}

// registerPush replaces this terminal's push endpoint with one bound to
// the new session.
func (a *App) registerPush(ctx context.Context) {
	url := a.config.PushEndpoint
	if url == "" {
		return
	}
	old, err := metadata.GetString(ctx, a.db.Metadata, metadata.KeyPushEndpointID)
	if err != nil {
		a.logger.Warn(ctx, "read push endpoint id", "error", err)
	}
	if old != "" {
		if err := a.remote.UnregisterPushEndpoint(ctx, old); err != nil {
			a.logger.Debug(ctx, "unregister previous push endpoint", "error", err)
		}
		if err := metadata.SetString(ctx, a.db.Metadata, metadata.KeyPushEndpointID, ""); err != nil {
			a.logger.Warn(ctx, "forget push endpoint id", "error", err)
		}
	}
	id, err := a.remote.RegisterPushEndpoint(ctx, url)
	if err != nil {
		a.logger.Warn(ctx, "register push endpoint", "error", err)
		return
	}
	if err := metadata.SetString(ctx, a.db.Metadata, metadata.KeyPushEndpointID, id); err != nil {
		a.logger.Warn(ctx, "save push endpoint id", "error", err)
	}
}

// Logout ends the real session or the decoy shell. It is safe to call in
// any state.
func (a *App) Logout(ctx context.Context) {
	a.mu.Lock()
	s := a.sess
	a.sess = nil
	a.decoy = ""
	a.mu.Unlock()

	if s == nil {
		return
	}
	s.cancel()

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCleanupTimeout)
	defer cancel()
	if err := s.negotiator.Cleanup(cctx); err != nil {
		a.logger.Warn(ctx, "peer cleanup", "error", err)
	}
	s.wg.Wait()
	s.codec.Wipe()

	if a.remote != nil && a.Mode() == ModeDisabled {
		a.setMode(ModeOffline)
	}
	a.logger.Info(ctx, "session closed")
}

// Panic tells the peer, drops the session, erases local records and
// falls into the decoy shell.
func (a *App) Panic(ctx context.Context) {
	s := a.current()
	if s == nil {
		return
	}
	if err := s.chat.SendEmergency(ctx, s.user, s.id); err != nil {
		a.logger.Warn(ctx, "emergency message", "error", err)
	}
	a.Logout(ctx)
	if err := a.db.Wipe(ctx); err != nil {
		a.logger.Error(ctx, "wipe local database", "error", err)
	}
	a.enterDecoy(auth.DecoyUser)
	for _, l := range fsckLines {
		printlnFn(l)
	}
}
