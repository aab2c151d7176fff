package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/nestdevhive/internal/client/client"
	"github.com/dmitrijs2005/nestdevhive/internal/client/config"
	"github.com/dmitrijs2005/nestdevhive/internal/client/services"
	"github.com/dmitrijs2005/nestdevhive/internal/filex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config         *config.Config
	authService    services.AuthService
	projectService services.ProjectService
	reader         *bufio.Reader
	out            io.Writer

	mu    sync.Mutex
	login string
	mode  Mode
}

// NewApp opens the session store under cfg.DataDir and prepares the API services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, "session.db"))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db, c.ServerEndpointAddr)
	ps := services.NewProjectService(apiClient)

	return &App{
		config:         c,
		authService:    as,
		projectService: ps,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}, nil
}

// Run restores any saved session and serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	login, err := a.authService.Restore(ctx)
	if err != nil {
		log.Printf("could not restore session: %s", err)
	}
	a.setLogin(login)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to nestdevhive CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) setLogin(login string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.login = login
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.login != ""
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.login
	if a.mode != "" {
		if s != "" {
			s += " "
		}
		s += string(a.mode)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
