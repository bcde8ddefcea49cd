package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/client/auth"
	"github.com/dmitrijs2005/ttychat/internal/client/config"
	"github.com/dmitrijs2005/ttychat/internal/client/localdb"
	"github.com/dmitrijs2005/ttychat/internal/client/notify"
	"github.com/dmitrijs2005/ttychat/internal/client/store"
	"github.com/dmitrijs2005/ttychat/internal/logging"
	"github.com/dmitrijs2005/ttychat/internal/peer"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// remote is the part of *store.GRPCClient the terminal uses beyond the
// document store itself.
type remote interface {
	store.DocumentStore
	Authenticate(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Notify(ctx context.Context, author, body string) (int, error)
	RegisterPushEndpoint(ctx context.Context, url string) (string, error)
	UnregisterPushEndpoint(ctx context.Context, id string) error
	Close() error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	out      io.Writer
	db       *localdb.DB
	remote   remote
	auth     *auth.Authenticator
	notifier *notify.Dispatcher
	// factory builds peer connections; nil means pion.
	factory peer.ConnectionFactory

	modeMu sync.RWMutex
	mode   Mode

	mu      sync.Mutex
	sess    *session
	decoy   string
	history []string
}

// NewApp opens the local database and prepares the server client. A
// missing access key or a client that cannot be built puts the terminal in
// disabled mode; the shell still works and chat stays local.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger, out io.Writer) (*App, error) {
	db, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	a := &App{config: c, logger: l.With("module", "cli"), out: out, db: db, mode: ModeOffline}

	au, err := auth.NewAuthenticator(c.RealVerifier, c.DuressVerifier, c.AuthSalt)
	if err != nil {
		a.logger.Warn(ctx, "password verifiers are not configured", "error", err)
	} else {
		a.auth = au
	}

	if c.AccessKey == "" {
		a.logger.Warn(ctx, "no access key configured")
		a.setMode(ModeDisabled)
		return a, nil
	}

	client, err := store.NewGRPCClient(c.ServerEndpointAddr, c.AccessKey, l)
	if err != nil {
		a.logger.Error(ctx, "cannot create store client", "error", err)
		a.setMode(ModeDisabled)
		return a, nil
	}
	a.setRemote(client)
	return a, nil
}

func (a *App) setRemote(r remote) {
	a.remote = r
	a.notifier = notify.NewDispatcher(r, notify.DefaultTimeout, a.logger)
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode != mode {
		a.mode = mode
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

// Run prints the boot sequence and serves the REPL on in until EOF.
func (a *App) Run(ctx context.Context, in io.Reader) {
	defer a.Close(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	for _, l := range bootLines {
		printlnFn(l)
	}
	runREPL(ctx, a, a.prompt, bufio.NewScanner(in))
}

// Close ends the session and releases the server connection and the
// local database.
func (a *App) Close(ctx context.Context) {
	a.Logout(ctx)
	a.notifier.Wait()
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.logger.Warn(ctx, "close store client", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(ctx, "close local database", "error", err)
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips
// between online and offline mode. Disabled mode is left alone.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if a.remote == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	if a.Mode() == ModeDisabled {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.remote.Ping(pctx)
	cancel()

	if err != nil {
		if a.Mode() == ModeOnline {
			a.setMode(ModeOffline)
		}
		return
	}
	if a.Mode() != ModeOnline {
		a.setMode(ModeOnline)
	}
}

func (a *App) prompt() string {
	switch a.state() {
	case stateChat:
		if a.Mode() != ModeOnline {
			return "root@root[" + string(a.Mode()) + "]:$~ "
		}
		return ownPrefix
	case stateDecoy:
		return a.decoyUser() + "@secure-host:~/$ "
	}
	return "user@user:~$ "
}
