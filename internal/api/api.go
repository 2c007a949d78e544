package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/quran"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenHeader carries the shared API token.
const TokenHeader = "X-API-Token"

// Scheduler is the prayer service as seen by the HTTP API.
type Scheduler interface {
	TodayTimetable(ctx context.Context, userID int64, now time.Time) (*models.Timetable, error)
	Settings(ctx context.Context, userID int64) (*models.Settings, error)
	ApplySettings(ctx context.Context, userID int64, old, next *models.Settings) error
	ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error)
	AddReminder(ctx context.Context, userID int64, text string, clock models.ClockTime) (*models.Reminder, error)
	RemoveReminder(ctx context.Context, userID int64, reminderID int) error
	UpdateRecurring(ctx context.Context, userID int64, enabled bool, hours int) error
	PendingAlarms(ctx context.Context, userID int64) ([]models.Alarm, error)
}

// UserRegistry creates the user row that settings and reminders belong to.
type UserRegistry interface {
	Ensure(ctx context.Context, userID int64) error
}

type VerseSource interface {
	RandomVerse(ctx context.Context) (*quran.Verse, error)
}

type Error struct {
	Code    int
	Message string
}

type HandlerFunc func(c *gin.Context) (any, *Error)

// ResolveEndpoint renders the handler's result as JSON, or its error.
func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, apiErr := h(c)
		if apiErr != nil {
			c.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type Config struct {
	Token    string
	Gatherer prometheus.Gatherer
	Clock    func() time.Time
	// Users is optional; when set, users first seen through the API are registered.
	Users UserRegistry
}

type Server struct {
	sched  Scheduler
	verses VerseSource
	cfg    Config
}

func NewServer(sched Scheduler, verses VerseSource, cfg Config) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Server{sched: sched, verses: verses, cfg: cfg}
}

// Router mounts every route on a new gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", TokenHeader},
		ExposeHeaders:   []string{"Content-Length"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))

	grp := r.Group("/api", TokenMiddleware(s.cfg.Token))
	grp.GET("/verse", ResolveEndpoint(s.verse))
	grp.GET("/adhkar/:category", ResolveEndpoint(s.adhkarList))

	users := grp.Group("/users/:id", s.registerUser)
	users.GET("/prayer-times", ResolveEndpoint(s.prayerTimes))
	users.GET("/settings", ResolveEndpoint(s.getSettings))
	users.PUT("/settings", ResolveEndpoint(s.putSettings))
	users.GET("/reminders", ResolveEndpoint(s.listReminders))
	users.POST("/reminders", ResolveEndpoint(s.addReminder))
	users.DELETE("/reminders/:rid", ResolveEndpoint(s.removeReminder))
	users.PUT("/recurring", ResolveEndpoint(s.putRecurring))
	users.GET("/alarms", ResolveEndpoint(s.alarms))
	return r
}

// TokenMiddleware rejects requests whose X-API-Token does not match token.
func TokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(TokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) registerUser(c *gin.Context) {
	id, apiErr := userID(c)
	if apiErr != nil {
		c.AbortWithStatusJSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	if s.cfg.Users != nil {
		if err := s.cfg.Users.Ensure(c.Request.Context(), id); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.Next()
}

func userID(c *gin.Context) (int64, *Error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &Error{Code: http.StatusBadRequest, Message: "invalid user id"}
	}
	return id, nil
}

func serverError(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: err.Error()}
}

func badRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

func notFound(err error) *Error {
	return &Error{Code: http.StatusNotFound, Message: err.Error()}
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
