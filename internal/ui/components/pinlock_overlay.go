// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
	"github.com/jeranaias/pinlock-tui/internal/ui/styles"
)

// =============================================================================
// KEY MAP
// =============================================================================

// PinLockKeyMap defines the keyboard bindings of the PIN lock.
type PinLockKeyMap struct {
	Digit     key.Binding
	Backspace key.Binding
	Reset     key.Binding
	Cancel    key.Binding
	Dismiss   key.Binding
	Help      key.Binding
}

// DefaultPinLockKeyMap returns the default PIN lock bindings.
func DefaultPinLockKeyMap() PinLockKeyMap {
	return PinLockKeyMap{
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "enter digit"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace", "delete"),
			key.WithHelp("Bksp", "delete digit"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset PIN"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k PinLockKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Digit, k.Backspace, k.Help}
}

// FullHelp implements help.KeyMap.
func (k PinLockKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Digit, k.Backspace},
		{k.Reset, k.Cancel, k.Dismiss, k.Help},
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// ShakeTickMsg advances the wrong-PIN shake. ID ties the tick to the shake
// that scheduled it so a newer shake supersedes an older one.
type ShakeTickMsg struct {
	ID    int
	Frame int
}

// PinLockIntentMsg carries the intents produced by a key press to the host.
type PinLockIntentMsg struct {
	Intents []pinlock.Intent
}

// =============================================================================
// PIN LOCK OVERLAY
// =============================================================================

const pinLockPanelWidth = 36

// PinLockOverlay renders a gate as a full-screen lock and feeds it keys.
// It draws nothing while the gate is hidden.
type PinLockOverlay struct {
	gate   *gate.Gate
	keys   PinLockKeyMap
	help   help.Model
	glyphs styles.GlyphSet

	shakeEnabled bool
	shakeID      int
	shakeFrame   int // -1 when at rest

	message string

	width  int
	height int
}

// NewPinLockOverlay creates an overlay for g.
func NewPinLockOverlay(g *gate.Gate, glyphs styles.GlyphSet) PinLockOverlay {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(styles.TextMuted)
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc

	return PinLockOverlay{
		gate:         g,
		keys:         DefaultPinLockKeyMap(),
		help:         h,
		glyphs:       glyphs,
		shakeEnabled: true,
		shakeFrame:   -1,
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the overlay dimensions.
func (o *PinLockOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetShake enables or disables the shake feedback.
func (o *PinLockOverlay) SetShake(enabled bool) {
	o.shakeEnabled = enabled
	if !enabled {
		o.shakeFrame = -1
	}
}

// SetGlyphs replaces the dot glyphs.
func (o *PinLockOverlay) SetGlyphs(glyphs styles.GlyphSet) {
	o.glyphs = glyphs
}

// IsVisible reports whether the lock is shown.
func (o PinLockOverlay) IsVisible() bool {
	return o.gate.Visible()
}

// Shaking reports whether a shake is in progress.
func (o PinLockOverlay) Shaking() bool {
	return o.shakeFrame >= 0
}

// Message returns the feedback line under the dots.
func (o PinLockOverlay) Message() string {
	return o.message
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the overlay (no-op for overlays).
func (o PinLockOverlay) Init() tea.Cmd {
	return nil
}

// Update handles messages for the overlay. Keys are consumed only while
// the lock is visible.
func (o PinLockOverlay) Update(msg tea.Msg) (PinLockOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.width = msg.Width
		o.height = msg.Height

	case ShakeTickMsg:
		if msg.ID != o.shakeID || o.shakeFrame < 0 {
			return o, nil
		}
		if msg.Frame >= styles.ShakeFrames() {
			o.shakeFrame = -1
			return o, nil
		}
		o.shakeFrame = msg.Frame
		cmd := o.shakeTick(msg.Frame + 1)
		return o, cmd

	case tea.KeyMsg:
		if !o.gate.Visible() {
			return o, nil
		}
		return o.handleKey(msg)
	}

	return o, nil
}

func (o PinLockOverlay) handleKey(msg tea.KeyMsg) (PinLockOverlay, tea.Cmd) {
	switch {
	case key.Matches(msg, o.keys.Backspace):
		o.gate.Backspace()
		return o, nil

	case key.Matches(msg, o.keys.Help):
		o.help.ShowAll = !o.help.ShowAll
		return o, nil

	case key.Matches(msg, o.keys.Reset) && o.gate.ShowsReset():
		o.message = ""
		o.gate.RequestSetPin()
		return o, nil

	case key.Matches(msg, o.keys.Cancel) && o.gate.ShowsCancel():
		o.message = ""
		cmd := o.afterIntents(o.gate.Cancel())
		return o, cmd

	case key.Matches(msg, o.keys.Dismiss) && o.gate.ShowsCancel():
		o.message = ""
		o.help.ShowAll = false
		cmd := o.afterIntents(o.gate.Dismiss())
		return o, cmd
	}

	if digits, ok := keyDigits(msg); ok {
		o.message = ""
		var intents []pinlock.Intent
		for _, d := range digits {
			if !o.gate.Visible() {
				break
			}
			intents = append(intents, o.gate.PressDigit(d)...)
		}
		cmd := o.afterIntents(intents)
		return o, cmd
	}

	// Anything else is a tap outside the keypad.
	cmd := o.startShake()
	return o, cmd
}

// afterIntents updates feedback for intents and forwards them to the host.
// It must be called on the overlay whose state is returned.
func (o *PinLockOverlay) afterIntents(intents []pinlock.Intent) tea.Cmd {
	if len(intents) == 0 {
		return nil
	}

	var cmds []tea.Cmd
	for _, in := range intents {
		if in.Kind == pinlock.IntentInvalidAttempt {
			if o.gate.Session().Mode == pinlock.ModeUnlock {
				o.message = "Wrong PIN"
			} else {
				o.message = "PINs did not match"
			}
			cmds = append(cmds, o.startShake())
		}
	}

	forwarded := append([]pinlock.Intent(nil), intents...)
	cmds = append(cmds, func() tea.Msg {
		return PinLockIntentMsg{Intents: forwarded}
	})
	return tea.Batch(cmds...)
}

func (o *PinLockOverlay) startShake() tea.Cmd {
	if !o.shakeEnabled {
		return nil
	}
	o.shakeID++
	o.shakeFrame = 0
	return o.shakeTick(1)
}

func (o PinLockOverlay) shakeTick(frame int) tea.Cmd {
	id := o.shakeID
	return tea.Tick(styles.ShakeFrameDuration, func(time.Time) tea.Msg {
		return ShakeTickMsg{ID: id, Frame: frame}
	})
}

// keyDigits folds a key's runes with NFKC so full-width and other
// compatibility digits map to ASCII. It reports false unless every rune is
// a digit, which also covers pasted PINs.
func keyDigits(msg tea.KeyMsg) ([]rune, bool) {
	if msg.Type != tea.KeyRunes || msg.Alt || len(msg.Runes) == 0 {
		return nil, false
	}
	folded := []rune(norm.NFKC.String(string(msg.Runes)))
	for _, r := range folded {
		if r < '0' || r > '9' {
			return nil, false
		}
	}
	return folded, true
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the lock, or "" while hidden.
func (o PinLockOverlay) View() string {
	if !o.gate.Visible() {
		return ""
	}

	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	panelWidth := pinLockPanelWidth
	if panelWidth > width-6 {
		panelWidth = width - 6
	}
	if panelWidth < 16 {
		panelWidth = 16
	}
	textWidth := panelWidth - 6

	session := o.gate.Session()
	var parts []string

	titleColor := styles.Cyan
	if session.Mode != pinlock.ModeUnlock {
		titleColor = styles.Amber
	}
	titleStyle := lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	parts = append(parts, titleStyle.Render(truncateLabel(o.gate.Title(), textWidth)))
	parts = append(parts, "")

	dotStyle := lipgloss.NewStyle().Foreground(styles.Purple)
	parts = append(parts, dotStyle.Render(
		styles.RenderDots(o.glyphs, len(session.Entered), session.PinLength())))

	if o.message != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Rose).
			Render(truncateLabel(o.message, textWidth)))
	} else {
		parts = append(parts, "")
	}
	parts = append(parts, "")

	parts = append(parts, o.renderKeypad())

	var links []string
	linkStyle := lipgloss.NewStyle().Foreground(styles.Cyan).Underline(true)
	labels := o.gate.Labels()
	if o.gate.ShowsReset() {
		links = append(links, linkStyle.Render(truncateLabel(labels.Reset, textWidth)))
	}
	if o.gate.ShowsCancel() {
		links = append(links, linkStyle.Render(truncateLabel(labels.Cancel, textWidth)))
	}
	if len(links) > 0 {
		parts = append(parts, "")
		parts = append(parts, links...)
	}

	o.help.Width = textWidth
	parts = append(parts, "", o.help.View(o.keysForMode()))

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)

	left, right := styles.ShakeMargins(o.shakeFrame)
	borderColor := styles.OverlayDim
	if o.shakeFrame >= 0 {
		borderColor = styles.Rose
	}
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(panelWidth).
		Align(lipgloss.Center).
		MarginLeft(left).
		MarginRight(right).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}

// keysForMode disables bindings whose affordance is not shown.
func (o PinLockOverlay) keysForMode() PinLockKeyMap {
	k := o.keys
	k.Reset.SetEnabled(o.gate.ShowsReset())
	k.Cancel.SetEnabled(o.gate.ShowsCancel())
	k.Dismiss.SetEnabled(o.gate.ShowsCancel())
	return k
}

func (o PinLockOverlay) renderKeypad() string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	rows := []string{"1 2 3", "4 5 6", "7 8 9", "  0  "}
	if o.gate.ShowsCancel() {
		rows[3] = "  0 x"
	}
	for i, row := range rows {
		rows[i] = keyStyle.Render(row)
	}
	return strings.Join(rows, "\n")
}

// truncateLabel shortens s to fit width display columns.
func truncateLabel(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "...")
}
