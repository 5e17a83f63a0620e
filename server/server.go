// Package server exposes the turn loop and its supporting stores over HTTP.
// All failures cross the API boundary as a uniform {status, message}
// envelope.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/memory"
	"github.com/hupe1980/teambrain/reminder"
	"github.com/hupe1980/teambrain/rules"
	"github.com/hupe1980/teambrain/runner"
)

const identityKey = "teambrain.identity"

// Server wires the HTTP surface.
type Server struct {
	engine    *gin.Engine
	runner    *runner.Runner
	resolver  runner.IdentityResolver
	memories  memory.Store
	reminders *reminder.Service
	rules     *rules.Engine
	lookahead time.Duration
	logger    logging.Logger
}

// Options configure the server.
type Options struct {
	// ReminderLookahead is the window for GET /v1/reminders/upcoming.
	ReminderLookahead time.Duration
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// New builds the server and registers all routes.
func New(
	r *runner.Runner,
	resolver runner.IdentityResolver,
	memories memory.Store,
	reminders *reminder.Service,
	ruleEngine *rules.Engine,
	optFns ...func(o *Options),
) *Server {
	opts := Options{
		ReminderLookahead: 24 * time.Hour,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		runner:    r,
		resolver:  resolver,
		memories:  memories,
		reminders: reminders,
		rules:     ruleEngine,
		lookahead: opts.ReminderLookahead,
		logger:    opts.Logger,
	}
	s.routes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1", s.authMiddleware())
	v1.POST("/turn", s.handleTurn)
	v1.POST("/conversations/:id/finalize", s.handleFinalize)
	v1.GET("/reminders/upcoming", s.handleUpcomingReminders)
	v1.POST("/memories", s.handleStoreMemory)
	v1.GET("/memories/search", s.handleSearchMemories)
	v1.POST("/rules", s.handleAddRule)
}

// authMiddleware resolves the bearer token once per request and stashes the
// identity plus raw token in the request context.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		id, err := s.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	return header
}

func callerIdentity(c *gin.Context) core.Identity {
	id, _ := c.Get(identityKey)
	out, _ := id.(core.Identity)
	return out
}

type turnBody struct {
	ConversationID string `json:"conversation_id"`
	Utterance      string `json:"utterance" binding:"required"`
}

func (s *Server) handleTurn(c *gin.Context) {
	var body turnBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	resp, err := s.runner.Turn(c.Request.Context(), runner.TurnRequest{
		ConversationID: body.ConversationID,
		Utterance:      body.Utterance,
		Token:          bearerToken(c),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFinalize(c *gin.Context) {
	t, err := s.runner.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation_id": t.ConversationID,
		"summary":         t.Summary,
		"tags":            t.Tags,
	})
}

func (s *Server) handleUpcomingReminders(c *gin.Context) {
	id := callerIdentity(c)
	upcoming := s.reminders.Upcoming(c.Request.Context(), id.TeamID, s.lookahead)
	c.JSON(http.StatusOK, gin.H{"reminders": upcoming, "count": len(upcoming)})
}

type memoryBody struct {
	Content    string   `json:"content" binding:"required"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Visibility string   `json:"visibility"`
}

func (s *Server) handleStoreMemory(c *gin.Context) {
	var body memoryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	rec, err := s.memories.Store(c.Request.Context(), memory.NewRecord(
		callerIdentity(c), body.Content, body.Category, body.Tags,
		memory.Visibility(body.Visibility),
	))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleSearchMemories(c *gin.Context) {
	id := callerIdentity(c)
	results, err := s.memories.Search(c.Request.Context(), memory.Query{
		Text:     c.Query("q"),
		TeamID:   id.TeamID,
		UserID:   id.UserID,
		Category: c.Query("category"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type ruleBody struct {
	Type     string `json:"type" binding:"required"`
	Trigger  string `json:"trigger" binding:"required"`
	Response string `json:"response" binding:"required"`
}

func (s *Server) handleAddRule(c *gin.Context) {
	var body ruleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	rule, err := s.rules.Add(rules.Rule{
		UserID:   callerIdentity(c).UserID,
		Type:     rules.MatchType(body.Type),
		Trigger:  body.Trigger,
		Response: body.Response,
	})
	if err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
}

// fail maps domain errors to HTTP statuses and emits the uniform envelope.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var (
		authErr      *core.AuthError
		unavailable  *core.ModelUnavailableError
		exhausted    *core.LoopExhaustionError
		finalization *core.FinalizationError
	)
	switch {
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrTurnInFlight):
		status = http.StatusConflict
	case errors.Is(err, core.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.As(err, &unavailable):
		status = http.StatusServiceUnavailable
	case errors.As(err, &exhausted):
		status = http.StatusBadGateway
	case errors.As(err, &finalization):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"status": "error", "message": err.Error()})
}
