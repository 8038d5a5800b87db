// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen host for the PIN lock.
//
// The host owns the gate and renders the lock over a protected screen.
// Terminal focus, blur and suspend/resume drive the relock policy, and the
// config file is watched so edits apply without a restart.

package cli

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pinlock-tui/internal/config"
	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
	"github.com/jeranaias/pinlock-tui/internal/ui/components"
	"github.com/jeranaias/pinlock-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config picked up by the file watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}

// =============================================================================
// MODEL
// =============================================================================

// LockModel is the bubbletea model for the lock screen host.
type LockModel struct {
	env     *Env
	overlay components.PinLockOverlay

	width  int
	height int

	status    string
	unlocks   int
	lastLock  lifecycle.Decision
	lockCount int
}

// NewLockModel creates the host model. The lock is shown immediately when
// lock.lock_on_start is set or no PIN is configured yet.
func NewLockModel(env *Env) *LockModel {
	m := &LockModel{env: env}
	m.overlay = components.NewPinLockOverlay(env.Gate, styles.DetectGlyphs(env.Args.ASCII || env.Config.UI.ASCII))
	m.overlay.SetShake(env.Config.UI.Shake)

	if env.Config.Lock.LockOnStart || !env.Gate.Session().HasPin() {
		m.lock()
	}
	return m
}

// lock shows the gate with an unlock callback bound to this host.
func (m *LockModel) lock() {
	m.env.Gate.Show(pinlock.ShowOptions{OnUnlock: m.onUnlock})
}

func (m *LockModel) onUnlock() {
	m.unlocks++
	m.status = fmt.Sprintf("Unlocked at %s", time.Now().Format(time.Kitchen))
}

// Init initializes the model.
func (m *LockModel) Init() tea.Cmd {
	return tea.Batch(m.overlay.Init(), tea.SetWindowTitle("pinlock"))
}

// Update handles messages.
func (m *LockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if state, ok := lifecycle.FromTeaMsg(msg); ok {
		return m, m.reportState(state, time.Now())
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case lifecycle.StateMsg:
		return m, m.reportState(msg.State, msg.Time)

	case lifecycle.LockRequestMsg:
		m.lastLock = msg.Decision
		m.lockCount++
		m.status = fmt.Sprintf("Locked (%s)", msg.Decision.Reason)
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		m.status = "Configuration reloaded"
		return m, nil

	case ConfigErrorMsg:
		m.status = "Config reload failed: " + msg.Err.Error()
		return m, nil

	case components.PinLockIntentMsg:
		for _, in := range msg.Intents {
			if in.Kind == pinlock.IntentPinSet {
				m.status = "New PIN set"
			}
		}
		return m, nil

	case components.ShakeTickMsg:
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m *LockModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+z":
		// The terminal is about to be handed back to the shell.
		m.reportState(lifecycle.StateBackground, time.Now())
		return m, tea.Suspend
	}

	if m.overlay.IsVisible() {
		var cmd tea.Cmd
		m.overlay, cmd = m.overlay.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+l", "l":
		gate.Show(pinlock.ShowOptions{OnUnlock: m.onUnlock})
	case "p":
		gate.RequestSetPin()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// reportState feeds one lifecycle transition to the gate. The gate shows
// itself on a lock decision; the returned command reports it to the host.
func (m *LockModel) reportState(state lifecycle.AppState, at time.Time) tea.Cmd {
	d := m.env.Gate.ReportAppState(state, at)
	if !d.Lock {
		return nil
	}
	return func() tea.Msg { return lifecycle.LockRequestMsg{Decision: d} }
}

func (m *LockModel) applyConfig(cfg *config.Config) {
	m.env.ApplyConfig(cfg)
	m.overlay.SetShake(cfg.UI.Shake)
	m.overlay.SetGlyphs(styles.DetectGlyphs(m.env.Args.ASCII || cfg.UI.ASCII))
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the lock while visible and the protected screen otherwise.
func (m *LockModel) View() string {
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}
	return m.protectedView()
}

func (m *LockModel) protectedView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.Emerald).Render("Unlocked")
	dim := lipgloss.NewStyle().Foreground(styles.TextMuted)
	text := lipgloss.NewStyle().Foreground(styles.TextPrimary)

	var b strings.Builder
	b.WriteString(title + "\n\n")

	lc := m.env.Gate.RelockConfig()
	b.WriteString(text.Render(fmt.Sprintf("Lock on resume:   %v", lc.LockOnResume)) + "\n")
	if lc.AutoLockEnabled() {
		b.WriteString(text.Render(fmt.Sprintf("Auto-lock after:  %s",
			lifecycle.FormatDuration(lc.Threshold()))) + "\n")
	} else {
		b.WriteString(text.Render("Auto-lock after:  off") + "\n")
	}
	b.WriteString(text.Render(fmt.Sprintf("Unlocks:          %d", m.unlocks)) + "\n")
	if m.lockCount > 0 {
		b.WriteString(text.Render(fmt.Sprintf("Last relock:      %s after %s",
			m.lastLock.Reason, lifecycle.FormatDuration(m.lastLock.Elapsed))) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + styles.RenderInfo(m.status) + "\n")
	}
	b.WriteString("\n" + dim.Render("l lock  p change PIN  ctrl+z suspend  q quit"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayDim).
		Padding(1, 3).
		Render(b.String())

	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// HandleTUI handles the default "tui" command.
func HandleTUI(args Args) error {
	if err := RequiresTTY("show the lock screen"); err != nil {
		return err
	}

	// The full-screen UI owns stdout, so operational logs go to a file.
	if err := config.EnsureConfigDir(); err == nil {
		if dir, err := config.ConfigDir(); err == nil {
			if f, err := tea.LogToFile(filepath.Join(dir, "pinlock.log"), "pinlock"); err == nil {
				defer f.Close()
			}
		}
	}

	env, err := OpenEnv(args)
	if err != nil {
		return err
	}
	defer env.Close()

	model := NewLockModel(env)
	gate.Default.Mount(env.Gate)
	defer gate.Default.Unmount(env.Gate)

	if env.Audit != nil {
		env.Audit.LogStartup(env.SessionID(), map[string]string{"host": "tui", "version": Version})
		defer func() {
			env.Audit.LogShutdown(env.SessionID(), map[string]string{"host": "tui", "unlocks": fmt.Sprint(model.unlocks)})
		}()
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())

	if env.Config.UI.WatchConfig {
		if w, err := startConfigWatcher(env.ConfigPath, p); err != nil {
			log.Printf("CONFIG_WATCH_DISABLED | path=%s error=%v", env.ConfigPath, err)
		} else {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return NewCommandError("tui", "run", "terminal UI failed", err)
	}
	return nil
}

// startConfigWatcher forwards reloads to the program so the gate is only
// touched from the UI goroutine.
func startConfigWatcher(path string, p *tea.Program) (*config.Watcher, error) {
	w, err := config.NewWatcher(path, config.DefaultDebounce)
	if err != nil {
		return nil, err
	}
	w.OnChange = func(cfg *config.Config) { p.Send(ConfigReloadedMsg{Config: cfg}) }
	w.OnError = func(err error) { p.Send(ConfigErrorMsg{Err: err}) }
	if err := w.Watch(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
