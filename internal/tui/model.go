package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/config"
	"solana-gate/internal/exit"
)

// --- THEME (kept from the teacher's Crossterm-clone palette) ---
var (
	ColorBg           = lipgloss.Color("#0f1c2e")
	ColorBorder       = lipgloss.Color("#2e7de9")
	ColorText         = lipgloss.Color("#a9b1d6")
	ColorAccentGreen  = lipgloss.Color("#41a6b5")
	ColorAccentPurple = lipgloss.Color("#bd93f9")
	ColorActive       = lipgloss.Color("#7aa2f7")

	ColorSuccess = lipgloss.Color("#73daca")
	ColorWarning = lipgloss.Color("#ff9e64")
	ColorError   = lipgloss.Color("#f7768e")
	ColorInfo    = lipgloss.Color("#7dcfff")
	ColorProfit  = lipgloss.Color("#9ece6a")
	ColorLoss    = lipgloss.Color("#f7768e")

	StylePage   = lipgloss.NewStyle().Background(ColorBg).Foreground(ColorText)
	StyleHeader = lipgloss.NewStyle().Bold(true).Foreground(ColorActive)
	StyleKey    = lipgloss.NewStyle().Foreground(ColorAccentPurple).Bold(true)
	StyleProfit = lipgloss.NewStyle().Foreground(ColorProfit)
	StyleLoss   = lipgloss.NewStyle().Foreground(ColorLoss)

	ColorGray        = ColorText
	StyleTableHeader = lipgloss.NewStyle().Foreground(ColorActive).Bold(true)
	StyleFooter      = lipgloss.NewStyle().Foreground(ColorText)
	StyleModal       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(ColorBorder).Padding(1, 2)
	StyleHelpText    = lipgloss.NewStyle().Foreground(ColorAccentPurple).Italic(true)
)

func RenderHotKey(k, d string) string {
	return StyleKey.Render("["+k+"]") + d
}

// Screen identifies which pane the dashboard is currently rendering.
type Screen string

const (
	ScreenDashboard Screen = "dashboard"
	ScreenActivity  Screen = "activity"
)

// KeyMap is the dashboard's global key bindings.
type KeyMap struct {
	Activity, Theme, Quit key.Binding
	Tab                   key.Binding
}

var keys = KeyMap{
	Activity: key.NewBinding(key.WithKeys("a")),
	Theme:    key.NewBinding(key.WithKeys("t")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Tab:      key.NewBinding(key.WithKeys("tab")),
}

// DecisionFeed is the read-only view of recent gate decisions the
// dashboard polls, narrowed so it can be faked in tests.
type DecisionFeed interface {
	Recent(n int) []DecisionEntry
}

// DecisionEntry pairs a Decision with the candidate token it was made for.
type DecisionEntry struct {
	TokenSymbol string
	Decision    candidate.Decision
}

// PositionFeed is the read-only view of open/recent exit-engine positions.
type PositionFeed interface {
	Positions() []*exit.Position
}

// ActivityFeed is the read-only view of the activity log tail.
type ActivityFeed interface {
	Recent(n int) []activity.Entry
}

// Model is the bubbletea root model for the gate/exit dashboard.
// Grounded on the teacher's Model (internal/tui/model.go), trimmed from
// a multi-pane trading dashboard (signals/positions/trades/config) to
// the two screens SPEC_FULL.md's TUI needs: a decisions+positions
// dashboard and an activity-log tail.
type Model struct {
	Config    *config.Manager
	Decisions DecisionFeed
	Positions PositionFeed
	Activity  ActivityFeed

	Running   bool
	StartTime time.Time

	CurrentScreen Screen
	Width, Height int

	Anim AnimationState
}

// NewModel wires the dashboard to its read-only data sources.
func NewModel(cfg *config.Manager, decisions DecisionFeed, positions PositionFeed, act ActivityFeed) Model {
	return Model{
		Config:        cfg,
		Decisions:     decisions,
		Positions:     positions,
		Activity:      act,
		Running:       true,
		StartTime:     time.Now(),
		CurrentScreen: ScreenDashboard,
		Anim:          NewAnimationState(),
	}
}

func (m Model) Init() tea.Cmd {
	return AnimationTickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case AnimationTickMsg:
		m.Anim.Tick()
		return m, AnimationTickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.Running = false
			return m, tea.Quit
		case key.Matches(msg, keys.Theme):
			CycleTheme()
			return m, nil
		case key.Matches(msg, keys.Activity), key.Matches(msg, keys.Tab):
			if m.CurrentScreen == ScreenDashboard {
				m.CurrentScreen = ScreenActivity
			} else {
				m.CurrentScreen = ScreenDashboard
			}
			return m, nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	header := StyleHeader.Render(fmt.Sprintf(" gate dashboard  [uptime %s] ", time.Since(m.StartTime).Round(time.Second)))

	var body string
	switch m.CurrentScreen {
	case ScreenActivity:
		body = m.renderActivity()
	default:
		body = m.renderDashboard()
	}

	footer := StyleFooter.Render(RenderHotKey("tab/a", " activity ") + "  " + RenderHotKey("t", " theme ") + "  " + RenderHotKey("q", " quit "))

	return StylePage.Render(strings.Join([]string{header, body, footer}, "\n"))
}

func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(StyleTableHeader.Render("recent decisions"))
	b.WriteString("\n")
	if m.Decisions != nil {
		for _, e := range m.Decisions.Recent(10) {
			b.WriteString(renderDecisionRow(e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleTableHeader.Render("open positions"))
	b.WriteString("\n")
	if m.Positions != nil {
		for _, p := range m.Positions.Positions() {
			b.WriteString(renderPositionRow(p))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderActivity() string {
	var b strings.Builder
	b.WriteString(StyleTableHeader.Render("activity log"))
	b.WriteString("\n")
	if m.Activity != nil {
		for _, e := range m.Activity.Recent(m.logLines()) {
			b.WriteString(renderActivityRow(e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) logLines() int {
	if m.Config == nil {
		return 20
	}
	n := m.Config.Get().TUI.LogLines
	if n <= 0 {
		return 20
	}
	return n
}

func renderDecisionRow(e DecisionEntry) string {
	style := StyleProfit
	if e.Decision.State == candidate.StateBlocked {
		style = StyleLoss
	}
	return fmt.Sprintf("  %-10s %s  score=%s  %s",
		e.TokenSymbol, style.Render(string(e.Decision.State)), e.Decision.RiskScore.String(), e.Decision.Timestamp.Format("15:04:05"))
}

func renderPositionRow(p *exit.Position) string {
	snap := p.Snapshot()
	style := StyleProfit
	if snap.PnLPercent < 0 {
		style = StyleLoss
	}
	return fmt.Sprintf("  %-10s %s  pnl=%s%%  %s",
		snap.TokenSymbol, snap.Status, style.Render(fmt.Sprintf("%.1f", snap.PnLPercent)), snap.OpenedAt.Format("15:04:05"))
}

func renderActivityRow(e activity.Entry) string {
	return fmt.Sprintf("  [%s] %-8s %-8s %s", e.Timestamp.Format("15:04:05"), e.Level, e.Category, e.Message)
}
