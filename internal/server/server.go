package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskhub/internal/apperr"
	"taskhub/internal/identity"
	"taskhub/internal/logging"
	"taskhub/internal/models"
	"taskhub/internal/tracker"
)

// Authenticator registers users and resolves bearer tokens.
type Authenticator interface {
	Register(ctx context.Context, r identity.Registration) (models.User, error)
	Login(ctx context.Context, email, password string) (string, models.User, error)
	Resolve(ctx context.Context, token string) (identity.Identity, error)
	Profile(ctx context.Context, id identity.Identity) (models.User, error)
}

// Deduper rejects repeated idempotency keys.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

// Server provides HTTP handlers for the task tracker API.
type Server struct {
	engine  *gin.Engine
	auth    Authenticator
	tracker *tracker.Service
	dedup   Deduper
	logger  *zap.Logger
}

// New constructs the HTTP server with routes and middleware configured.
// dedup may be nil, in which case Idempotency-Key headers are ignored.
func New(auth Authenticator, coord *tracker.Service, dedup Deduper, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:  router,
		auth:    auth,
		tracker: coord,
		dedup:   dedup,
		logger:  logger,
	}
	router.Use(srv.requestID(), srv.accessLog())

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.GET("/profile", s.requireAuth(), s.handleProfile)
		}

		projects := api.Group("/projects", s.requireAuth())
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":projectId", s.handleGetProject)
			projects.PUT(":projectId", s.handleUpdateProject)
			projects.DELETE(":projectId", s.handleDeleteProject)

			projects.POST(":projectId/members", s.handleAddMember)
			projects.DELETE(":projectId/members/:memberId", s.handleRemoveMember)
			projects.GET(":projectId/available-users", s.handleAvailableUsers)

			projects.GET(":projectId/tasks", s.handleListTasks)
			projects.POST(":projectId/tasks", s.handleCreateTask)
			projects.PUT(":projectId/tasks/:taskId", s.handleUpdateTask)
			projects.DELETE(":projectId/tasks/:taskId", s.handleDeleteTask)

			projects.GET(":projectId/activities", s.handleListActivity)
		}
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to a positive int64, answering 400 otherwise.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(c, apperr.Validationf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// respondError maps err onto a status code and the {"error": msg} envelope.
// Internal details are only logged.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	log := logging.WithRequest(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		log.Debug("request rejected",
			zap.String("path", c.FullPath()),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.String("error", apperr.Message(err)),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

// respondSuccess writes payload as JSON, or just the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// caller returns the identity set by requireAuth.
func caller(c *gin.Context) identity.Identity {
	id, _ := identity.FromContext(c.Request.Context())
	return id
}
