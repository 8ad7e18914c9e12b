package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikeveit1/MacroTrack-sub000/internal/auth"
	"github.com/mikeveit1/MacroTrack-sub000/internal/diary"
	"github.com/mikeveit1/MacroTrack-sub000/internal/remote"
	"github.com/mikeveit1/MacroTrack-sub000/internal/tracker"
	"go.uber.org/zap"
)

const (
	userIDContextKey         = "macrotrack_user_id"
	defaultHeartbeatInterval = 25 * time.Second
)

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingUserResolver     = errors.New("user resolver dependency required")
	errMissingSessions         = errors.New("session registry dependency required")
	errMissingGateway          = errors.New("remote gateway dependency required")
)

// SessionValidator authenticates requests.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

// UserResolver maps session claims to the canonical user id.
type UserResolver interface {
	ResolveCanonicalUserID(claims auth.SessionClaims) (string, error)
}

// SessionProvider hands out the per-user day session.
type SessionProvider interface {
	Session(userID string) (*tracker.Session, error)
}

// HistoryGateway reads goals and history that live outside the day session.
type HistoryGateway interface {
	LoadGoals(ctx context.Context, userID string) (diary.Goals, error)
	SaveGoals(ctx context.Context, userID string, goals diary.Goals) error
	LoadHistory(ctx context.Context, userID string) (diary.History, []remote.RecordError, error)
}

// Dependencies wires the HTTP handler.
type Dependencies struct {
	SessionValidator  SessionValidator
	UserResolver      UserResolver
	Sessions          SessionProvider
	Gateway           HistoryGateway
	Realtime          *RealtimeDispatcher
	Clock             func() time.Time
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
}

// NewHTTPHandler builds the gin router for the MacroTrack API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.UserResolver == nil {
		return nil, errMissingUserResolver
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Gateway == nil {
		return nil, errMissingGateway
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		validator: deps.SessionValidator,
		users:     deps.UserResolver,
		sessions:  deps.Sessions,
		gateway:   deps.Gateway,
		realtime:  realtime,
		clock:     clock,
		heartbeat: heartbeat,
		logger:    logger,
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/session", handler.handleGetSession)
	protected.PUT("/session/date", handler.handleSelectDate)
	protected.POST("/session/meals/:slot/foods", handler.handleAddFood)
	protected.DELETE("/session/meals/:slot/foods/:food_id", handler.handleRemoveFood)
	protected.PUT("/session/meals/:slot/foods/:food_id/servings", handler.handleUpdateServings)

	protected.GET("/goals", handler.handleGetGoals)
	protected.PUT("/goals", handler.handlePutGoals)
	protected.GET("/stats", handler.handleStats)
	protected.GET("/history/export", handler.handleExport)

	protected.GET("/events", handler.handleEvents)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Last-Event-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

type httpHandler struct {
	validator SessionValidator
	users     UserResolver
	sessions  SessionProvider
	gateway   HistoryGateway
	realtime  *RealtimeDispatcher
	clock     func() time.Time
	heartbeat time.Duration
	logger    *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	claims, err := h.validator.ValidateRequest(c.Request)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredSessionToken) || errors.Is(err, auth.ErrMissingSessionToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, err := h.users.ResolveCanonicalUserID(claims)
	if err != nil {
		h.logger.Warn("user resolution failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func (h *httpHandler) currentSession(c *gin.Context) (*tracker.Session, bool) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	session, err := h.sessions.Session(userID)
	if err != nil {
		h.logger.Error("failed to open day session", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session_unavailable"})
		return nil, false
	}
	return session, true
}
