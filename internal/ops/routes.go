package ops

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chat-shim/internal/derive"
	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/models"
	"chat-shim/internal/observability"
	"chat-shim/internal/readiness"
	"chat-shim/internal/telemetry"
)

// Surface bundles what the operational endpoints read.
type Surface struct {
	Table         *hooks.Table
	Derived       *derive.Registry
	Hub           *readiness.Hub
	Audit         *telemetry.AuditEmitter
	PublisherMode string
	Log           zerolog.Logger
}

// Register wires health, metrics, and the token-guarded debug group when
// enabled. Health and metrics stay unauthenticated.
func Register(router *gin.Engine, s Surface, debugEnabled bool, debugToken string) {
	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !debugEnabled {
		return
	}

	debug := router.Group("/debug", BearerAuth(debugToken))
	debug.GET("/audit-test", s.auditTest)
	debug.GET("/chats/:chat_id", s.findChat)
	debug.GET("/chats/:chat_id/attributes", s.chatAttributes)
}

func (s Surface) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"ready":     s.Hub != nil && s.Hub.Ready(),
		"sealed":    s.Table != nil && s.Table.Registry.Sealed(),
		"publisher": s.PublisherMode,
	})
}

func (s Surface) auditTest(c *gin.Context) {
	if s.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
		return
	}
	s.Audit.Emit(c.Request.Context(), telemetry.EventAuditTest, "", map[string]any{
		"request_id": observability.RequestIDFromRequest(c.Request),
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// findChat resolves a chat through the dispatch table, which makes the whole
// self-healing path reachable from a curl.
func (s Surface) findChat(c *gin.Context) {
	id, err := models.ParseChatID(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	rec, ok := s.resolveChat(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s Surface) chatAttributes(c *gin.Context) {
	id, err := models.ParseChatID(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	if s.Derived == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "derived attributes not configured"})
		return
	}

	rec, ok := s.resolveChat(c, id)
	if !ok {
		return
	}

	attrs := gin.H{}
	for _, attr := range s.Derived.Attributes() {
		if val, found := s.Derived.Derive(attr, rec); found {
			attrs[string(attr)] = val
		}
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": id.String(), "attributes": attrs})
}

func (s Surface) resolveChat(c *gin.Context, id models.ChatID) (*models.ChatRecord, bool) {
	fn := s.Table.FindChat.Fn()
	if fn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "find capability absent"})
		return nil, false
	}

	rec, err := fn(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, host.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "chat lookup failed"})
		}
		return nil, false
	}
	return rec, true
}
