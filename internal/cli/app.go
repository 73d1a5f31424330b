package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/clipsync/internal/config"
	"github.com/dmitrijs2005/clipsync/internal/filex"
	"github.com/dmitrijs2005/clipsync/internal/identity"
	"github.com/dmitrijs2005/clipsync/internal/logging"
	"github.com/dmitrijs2005/clipsync/internal/netx"
	"github.com/dmitrijs2005/clipsync/internal/remote"
	"github.com/dmitrijs2005/clipsync/internal/repository"
	"github.com/dmitrijs2005/clipsync/internal/store"
	"github.com/dmitrijs2005/clipsync/internal/syncer"
	"github.com/dmitrijs2005/clipsync/internal/telemetry"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeGuest   Mode = "guest"
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type App struct {
	config *config.Config
	store  store.Store
	repo   *repository.Repository
	svc    *syncer.Service
	ident  *identity.TokenProvider
	net    netx.Checker
	log    logging.Logger
	Mode   Mode
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	log := logging.NewDefault()
	tel := telemetry.NewLogSink(log)

	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	st, err := store.NewSQLite(db, []byte(c.StoreKey), log, tel)
	if err != nil {
		return nil, err
	}
	repo := repository.New(st, log, tel)

	rs, err := remote.NewFirestore(ctx, c.CredentialsFile)
	if err != nil {
		return nil, err
	}

	ident := identity.NewTokenProvider()
	checker := netx.NewHTTPChecker(c.ProbeURL, 3*time.Second)
	svc := syncer.New(repo, rs, ident, checker, c.AppSalt, log, tel)

	return &App{
		config: c,
		store:  st,
		repo:   repo,
		svc:    svc,
		ident:  ident,
		net:    checker,
		log:    log,
		Mode:   ModeGuest,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isSignedIn() bool {
	_, ok := a.ident.Current()
	return ok
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(ctx, "switched mode", "mode", mode)
	}
}

// StartOnlineStatusWatcher periodically probes network reachability and
// flips the mode between online and offline while a user is signed in. A
// transition back to online triggers an opportunistic pull so the local
// mirror catches up with writes from other devices.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isSignedIn() {
				a.setMode(ctx, ModeGuest)
				continue
			}

			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			available := a.net.Available(probeCtx)
			cancel()

			if !available {
				a.setMode(ctx, ModeOffline)
				continue
			}

			regained := a.Mode != ModeOnline
			a.setMode(ctx, ModeOnline)
			if regained {
				if err := a.svc.Pull(ctx); err != nil {
					a.log.Warn(ctx, "opportunistic pull failed", "error", err)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
