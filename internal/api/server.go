// Package api exposes the gate and exit engine over HTTP, grounded on
// internal/signal/server.go's fiber.App wiring.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"solana-gate/internal/activity"
	"solana-gate/internal/candidate"
	"solana-gate/internal/exit"
	"solana-gate/internal/gate"
)

// Orchestrator is the subset of *gate.Orchestrator the API depends on,
// narrowed so the server can be unit-tested against a fake.
type Orchestrator interface {
	Evaluate(ctx context.Context, c candidate.Candidate) candidate.Decision
}

// DecisionHistory is the subset of *gate.Orchestrator that exposes past
// decisions, for dashboard consumption. Optional: the /decisions route
// degrades to an empty list when the Orchestrator doesn't implement it.
type DecisionHistory interface {
	RecentDecisions(n int) []gate.DecisionRecord
}

// ActivityLog is the read side of an activity sink, backed by
// activity.MemorySink in the default wiring.
type ActivityLog interface {
	Recent(n int) []activity.Entry
}

// Server exposes the candidate-submission + decision-query HTTP API
// (spec §4.F/§4.G/§4.H surfaced over HTTP).
type Server struct {
	app          *fiber.App
	orchestrator Orchestrator
	engine       *exit.Engine
	activityLog  ActivityLog
	promGatherer prometheus.Gatherer
	host         string
	port         int
}

// NewServer builds the HTTP API over a live Gate Orchestrator and
// Auto-Exit Engine. engine, activityLog, and gatherer may be nil: with a
// nil engine GET /positions returns an empty list and POST /positions
// returns 503, with a nil activityLog GET /activity returns an empty
// list, and with a nil gatherer /metrics is not mounted.
func NewServer(host string, port int, orchestrator Orchestrator, engine *exit.Engine, activityLog ActivityLog, gatherer prometheus.Gatherer) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})

	s := &Server{
		app:          app,
		orchestrator: orchestrator,
		engine:       engine,
		activityLog:  activityLog,
		promGatherer: gatherer,
		host:         host,
		port:         port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/candidates", s.handleSubmitCandidate)
	s.app.Get("/decisions", s.handleDecisions)
	s.app.Get("/positions", s.handlePositions)
	s.app.Post("/positions", s.handleOpenPosition)
	s.app.Get("/activity", s.handleActivity)

	if s.promGatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.promGatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleSubmitCandidate(c *fiber.Ctx) error {
	var payload candidate.Candidate
	if err := c.BodyParser(&payload); err != nil {
		log.Error().Err(err).Msg("failed to parse candidate payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if problems := payload.Validate(); len(problems) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid candidate", "problems": problems})
	}

	decision := s.orchestrator.Evaluate(c.Context(), payload)

	log.Info().
		Str("token", payload.TokenSymbol).
		Str("state", string(decision.State)).
		Str("risk_score", decision.RiskScore.String()).
		Msg("candidate evaluated")

	return c.JSON(decision)
}

func (s *Server) handleDecisions(c *fiber.Ctx) error {
	history, ok := s.orchestrator.(DecisionHistory)
	if !ok {
		return c.JSON([]any{})
	}
	limit := c.QueryInt("limit", 50)
	return c.JSON(history.RecentDecisions(limit))
}

func (s *Server) handlePositions(c *fiber.Ctx) error {
	if s.engine == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.engine.Positions())
}

// openPositionRequest is submitted by an external buy-execution system
// once a candidate's swap has confirmed on-chain, registering the new
// holding with the Auto-Exit Engine.
type openPositionRequest struct {
	TokenAddress  string  `json:"token_address"`
	TokenSymbol   string  `json:"token_symbol"`
	Amount        uint64  `json:"amount"`
	EntrySOL      float64 `json:"entry_sol"`
	EntryPriceUSD float64 `json:"entry_price_usd"`
}

func (s *Server) handleOpenPosition(c *fiber.Ctx) error {
	if s.engine == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "exit engine not configured"})
	}

	var req openPositionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	if req.TokenAddress == "" || req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token_address and amount are required"})
	}

	position := exit.NewPosition(req.TokenAddress, req.TokenSymbol, req.Amount, req.EntrySOL, req.EntryPriceUSD)
	s.engine.Open(position)

	log.Info().Str("token", req.TokenSymbol).Str("position_id", position.ID).Msg("position opened")
	return c.Status(fiber.StatusCreated).JSON(position)
}

func (s *Server) handleActivity(c *fiber.Ctx) error {
	if s.activityLog == nil {
		return c.JSON([]any{})
	}
	limit := c.QueryInt("limit", 100)
	return c.JSON(s.activityLog.Recent(limit))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	log.Info().Str("addr", addr).Msg("starting gate API server")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
