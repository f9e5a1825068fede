package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/worldsim/internal/config"
	"github.com/vovakirdan/worldsim/internal/core"
	"github.com/vovakirdan/worldsim/internal/session"
	"github.com/vovakirdan/worldsim/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.worldsim/host_key.
	HostKeyPath string

	// DBPath is the path to the run chronicle database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Base is the world config every session starts from. Each session
	// picks its own scenario, preset and seed.
	Base config.Config

	// TickRate is the viewer refresh rate in ticks per second.
	TickRate int
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		DBPath:      "~/.worldsim/chronicle.db",
		IdleTimeout: 30 * time.Minute,
		Base:        config.DefaultConfig(),
		TickRate:    10,
	}
}

// SSHServer wraps a Wish SSH server hosting one world per connection.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "worldsim-ssh",
	})

	// Open storage
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("could not open chronicle database", "error", err)
		// Continue without storage
		store = nil
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".worldsim", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	view := core.DefaultViewConfig()
	view.ScreenW = pty.Window.Width
	view.ScreenH = pty.Window.Height
	if s.config.TickRate > 0 {
		view.TickRate = s.config.TickRate
	}

	model := NewSessionModel(s.store, s.config.Base, view,
		s.logger.With("user", sshSession.User()))

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.store != nil {
		s.store.Close()
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

type screen int

const (
	screenMenu screen = iota
	screenViewer
	screenRuns
)

// SessionModel manages the full remote flow: menu -> world -> menu, with
// the run chronicle reachable from the menu. It is the top-level model used
// for SSH sessions.
type SessionModel struct {
	store    *storage.Store
	base     config.Config
	view     core.ViewConfig
	logger   *log.Logger
	current  screen
	menu     MenuModel
	viewer   Model
	runs     ChronicleModel
	sess     *session.Session
	status   string
	quitting bool
}

// NewSessionModel creates a new session model. Every world started from it
// is generated from base with the chosen scenario and preset.
func NewSessionModel(store *storage.Store, base config.Config, view core.ViewConfig, logger *log.Logger) SessionModel {
	return SessionModel{
		store:  store,
		base:   base,
		view:   view,
		logger: logger,
		menu:   NewMenuModel(view.ScreenW, view.ScreenH, base.World.Scenario, ""),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.view.ScreenW = wsm.Width
		m.view.ScreenH = wsm.Height
	}

	switch m.current {
	case screenViewer:
		return m.updateViewer(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.menu.WantsRuns() {
		m.current = screenRuns
		m.runs = NewChronicleModel(m.store, m.view.ScreenW, m.view.ScreenH)
		return m, m.runs.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		sess, err := m.startWorld(selected.Scenario, m.menu.Preset())
		if err != nil {
			m.logger.Warn("could not start world", "scenario", selected.Scenario, "error", err)
			m.status = err.Error()
			m.menu = NewMenuModel(m.view.ScreenW, m.view.ScreenH, selected.Scenario, m.menu.Preset())
			return m, nil
		}
		m.sess = sess
		m.viewer = NewModel(sess, m.view)
		m.current = screenViewer
		return m, m.viewer.Init()
	}

	return m, cmd
}

// startWorld builds a fresh session with its own clock-derived seed.
func (m SessionModel) startWorld(scenario string, preset config.Preset) (*session.Session, error) {
	cfg := m.base
	cfg.World.Scenario = scenario
	cfg.World.Seed = 0
	if err := config.ApplyPreset(&cfg, preset); err != nil {
		return nil, err
	}
	return session.New(cfg, session.Options{Store: m.store, Logger: m.logger})
}

// updateViewer handles updates while a world is on screen.
func (m SessionModel) updateViewer(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.viewer.Update(msg)
	if viewer, ok := newModel.(Model); ok {
		m.viewer = viewer
	}

	if m.viewer.BackToMenu() {
		m.closeWorld()
		m.current = screenMenu
		m.menu = NewMenuModel(m.view.ScreenW, m.view.ScreenH, m.base.World.Scenario, "")
		return m, m.menu.Init()
	}

	if m.viewer.IsQuitting() {
		m.closeWorld()
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

// updateRuns handles updates in the chronicle browser.
func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.runs.Update(msg)
	if runs, ok := newModel.(ChronicleModel); ok {
		m.runs = runs
	}

	if m.runs.IsGoingBack() {
		m.current = screenMenu
		m.menu = NewMenuModel(m.view.ScreenW, m.view.ScreenH, m.base.World.Scenario, "")
		return m, m.menu.Init()
	}

	if m.runs.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

func (m *SessionModel) closeWorld() {
	if m.sess != nil {
		m.sess.Close()
		m.sess = nil
	}
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.current {
	case screenViewer:
		return m.viewer.View()
	case screenRuns:
		return m.runs.View()
	}

	if m.status != "" {
		return m.menu.View() + "\n" + centerText(m.status, m.view.ScreenW)
	}
	return m.menu.View()
}
