package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/supportchat-dev/supportchat-go-backend/internal/analyze"
	c "github.com/supportchat-dev/supportchat-go-backend/internal/config"
	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/event"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
	"github.com/supportchat-dev/supportchat-go-backend/internal/suggest"
	"github.com/supportchat-dev/supportchat-go-backend/internal/utils"
)

// Options carries the tunables the composition root resolves from config.
type Options struct {
	Port           int
	Debug          bool
	ClientBuffer   int
	Heartbeat      time.Duration
	WebhookURL     string
	WebhookToken   string
	WebhookTimeout time.Duration
}

func OptionsFromConfig(config c.Config) Options {
	return Options{
		Port:           config.AppPort,
		Debug:          config.DebugMode,
		ClientBuffer:   config.Suggest.ClientBuffer,
		Heartbeat:      utils.ParseStringTime(config.Suggest.HeartbeatInterval),
		WebhookURL:     config.Webhook.URL,
		WebhookToken:   config.Webhook.BearerToken,
		WebhookTimeout: utils.ParseStringTime(config.Webhook.Timeout),
	}
}

type Server struct {
	engine        *gin.Engine
	httpServer    *http.Server
	opts          Options
	suggestions   *suggest.Broadcaster
	quickAnswers  *suggest.Broadcaster
	ratings       database.RatingStore
	conversations database.ConversationStore
	analyzer      *analyze.Analyzer
	webhookClient *http.Client
}

// New wires the HTTP surface. All responses allow cross-origin reads: the
// widget is embedded in an iframe on arbitrary parent origins and these
// endpoints carry no authentication.
func New(opts Options, suggestions, quickAnswers *suggest.Broadcaster,
	ratings database.RatingStore, conversations database.ConversationStore,
	analyzer *analyze.Analyzer) *Server {

	if opts.ClientBuffer <= 0 {
		opts.ClientBuffer = 16
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Cache-Control"}
	engine.Use(cors.New(corsConfig))

	s := &Server{
		engine:        engine,
		opts:          opts,
		suggestions:   suggestions,
		quickAnswers:  quickAnswers,
		ratings:       ratings,
		conversations: conversations,
		analyzer:      analyzer,
		webhookClient: &http.Client{Timeout: opts.WebhookTimeout},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.GET("/suggestions", s.handleSuggestionsStream)
	api.POST("/suggestions", s.handleSuggestionsPublish)
	api.GET("/quickanswer", s.handleQuickAnswersStream)
	api.POST("/quickanswer", s.handleQuickAnswersPublish)

	api.POST("/chat", s.handleChat)

	api.GET("/ratings", s.handleRatingList)
	api.POST("/ratings", s.handleRatingSubmit)
	api.GET("/ratings/stats", s.handleRatingStats)
	api.POST("/ratings/analyze", s.handleRatingAnalyze)

	api.GET("/conversations", s.handleConversationList)
	api.POST("/conversations", s.handleConversationCreate)
	api.GET("/conversations/:id", s.handleConversationGet)
	api.PATCH("/conversations/:id", s.handleConversationRename)
	api.DELETE("/conversations/:id", s.handleConversationDelete)
	api.GET("/conversations/:id/messages", s.handleConversationMessages)

	s.engine.GET("/healthz", s.handleHealth)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

type ShutdownCallback struct {
	server *Server
}

func (sc *ShutdownCallback) Invoke(ctx context.Context) error {
	return sc.server.httpServer.Shutdown(ctx)
}

func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:    ":" + strconv.Itoa(s.opts.Port),
		Handler: s.engine,
	}
	event.NewCleaner().Add(&ShutdownCallback{server: s})

	logger.InfoF("HTTP server listen on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.FatalF("HTTP server start error: %v", err)
	}
}
