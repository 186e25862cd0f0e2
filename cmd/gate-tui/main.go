package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"solana-gate/internal/activity"
	"solana-gate/internal/config"
	"solana-gate/internal/exit"
	"solana-gate/internal/gate"
	"solana-gate/internal/tui"
)

// httpFeed polls the gate's HTTP API for positions and activity,
// grounded on health.Checker's ticker-loop polling shape. Reads are
// served from a cached snapshot under sync.RWMutex so the bubbletea
// render loop never blocks on the network.
type httpFeed struct {
	baseURL string
	client  *http.Client

	mu         sync.RWMutex
	positions  []*exit.Position
	activities []activity.Entry
	decisions  []gate.DecisionRecord
}

func newHTTPFeed(baseURL string) *httpFeed {
	return &httpFeed{baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Second}}
}

func (f *httpFeed) Positions() []*exit.Position {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.positions
}

func (f *httpFeed) Recent(n int) []activity.Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n > len(f.activities) {
		n = len(f.activities)
	}
	return f.activities[len(f.activities)-n:]
}

// decisionFeed adapts httpFeed's polled decisions to tui.DecisionFeed.
// A separate type is needed because ActivityFeed and DecisionFeed both
// define a method named Recent with different return types, which a
// single receiver cannot satisfy at once.
type decisionFeed struct {
	f *httpFeed
}

func (d decisionFeed) Recent(n int) []tui.DecisionEntry {
	d.f.mu.RLock()
	defer d.f.mu.RUnlock()
	if n > len(d.f.decisions) {
		n = len(d.f.decisions)
	}
	entries := make([]tui.DecisionEntry, n)
	for i, r := range d.f.decisions[len(d.f.decisions)-n:] {
		entries[i] = tui.DecisionEntry{TokenSymbol: r.TokenSymbol, Decision: r.Decision}
	}
	return entries
}

func (f *httpFeed) poll(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.fetchPositions()
			f.fetchActivity()
			f.fetchDecisions()
		}
	}
}

func (f *httpFeed) fetchPositions() {
	var positions []*exit.Position
	if err := f.getJSON("/positions", &positions); err != nil {
		log.Warn().Err(err).Msg("gate-tui: failed to poll positions")
		return
	}
	f.mu.Lock()
	f.positions = positions
	f.mu.Unlock()
}

func (f *httpFeed) fetchActivity() {
	var entries []activity.Entry
	if err := f.getJSON("/activity?limit=200", &entries); err != nil {
		log.Warn().Err(err).Msg("gate-tui: failed to poll activity")
		return
	}
	f.mu.Lock()
	f.activities = entries
	f.mu.Unlock()
}

func (f *httpFeed) fetchDecisions() {
	var decisions []gate.DecisionRecord
	if err := f.getJSON("/decisions?limit=100", &decisions); err != nil {
		log.Warn().Err(err).Msg("gate-tui: failed to poll decisions")
		return
	}
	f.mu.Lock()
	f.decisions = decisions
	f.mu.Unlock()
}

func (f *httpFeed) getJSON(path string, out any) error {
	resp, err := f.client.Get(f.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func main() {
	apiURL := flag.String("api", "http://127.0.0.1:8080", "base URL of the running gate API server")
	configPath := flag.String("config", "config/config.yaml", "path to the gate config file")
	flag.Parse()

	cfg, err := config.NewManager(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("gate-tui: failed to load config, continuing without hot-reload")
		cfg = nil
	}

	feed := newHTTPFeed(*apiURL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.poll(ctx)

	model := tui.NewModel(cfg, decisionFeed{f: feed}, feed, feed)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "gate-tui: ", err)
		os.Exit(1)
	}
}
