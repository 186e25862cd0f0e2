package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/exit"
)

type fakeDecisionFeed struct{ entries []DecisionEntry }

func (f fakeDecisionFeed) Recent(n int) []DecisionEntry {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n]
}

type fakePositionFeed struct{ positions []*exit.Position }

func (f fakePositionFeed) Positions() []*exit.Position { return f.positions }

type fakeActivityFeed struct{ entries []activity.Entry }

func (f fakeActivityFeed) Recent(n int) []activity.Entry {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n]
}

func TestModel_TabSwitchesScreen(t *testing.T) {
	m := NewModel(nil, fakeDecisionFeed{}, fakePositionFeed{}, fakeActivityFeed{})
	if m.CurrentScreen != ScreenDashboard {
		t.Fatalf("expected initial screen to be dashboard, got %v", m.CurrentScreen)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m2, ok := updated.(Model)
	if !ok {
		t.Fatal("Update did not return a Model")
	}
	if m2.CurrentScreen != ScreenActivity {
		t.Fatalf("expected activity screen after tab, got %v", m2.CurrentScreen)
	}

	updated2, _ := m2.Update(tea.KeyMsg{Type: tea.KeyTab})
	m3 := updated2.(Model)
	if m3.CurrentScreen != ScreenDashboard {
		t.Fatalf("expected dashboard screen after second tab, got %v", m3.CurrentScreen)
	}
}

func TestModel_QuitKeyStopsRunning(t *testing.T) {
	m := NewModel(nil, fakeDecisionFeed{}, fakePositionFeed{}, fakeActivityFeed{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m2 := updated.(Model)
	if m2.Running {
		t.Fatal("expected Running to be false after quit key")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
}

func TestModel_ViewRendersDecisionsAndActivity(t *testing.T) {
	feed := fakeDecisionFeed{entries: []DecisionEntry{
		{TokenSymbol: "PEPE", Decision: candidate.Decision{State: candidate.StateBlocked, RiskScore: decimal.NewFromInt(80), Timestamp: time.Now()}},
	}}
	m := NewModel(nil, feed, fakePositionFeed{}, fakeActivityFeed{})
	out := m.View()
	if out == "" {
		t.Fatal("expected non-empty dashboard render")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m2 := updated.(Model)
	activityView := m2.View()
	if activityView == "" {
		t.Fatal("expected non-empty activity render")
	}
}
