package hostlink

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"chat-shim/internal/hooks"
	"chat-shim/internal/models"
	"chat-shim/internal/observability"
	"chat-shim/internal/readiness"
	"chat-shim/internal/telemetry"
)

// Event is one JSON frame on the host lifecycle feed.
type Event struct {
	Type     string                  `json:"type"`
	Envelope *models.MessageEnvelope `json:"envelope,omitempty"`
	Message  *models.Message         `json:"message,omitempty"`
}

type ack struct {
	Type   string `json:"type"`
	ConnID string `json:"conn_id"`
}

type classification struct {
	Type      string           `json:"type"`
	MediaKind models.MediaKind `json:"media_kind"`
	TypeLabel string           `json:"type_label"`
	Unread    bool             `json:"unread"`
}

// Handler terminates the host's lifecycle feed. A ready event trips the
// readiness hub and a ping answers with a pong. Classify events answer with
// the current classification of an inline envelope or message.
type Handler struct {
	hub   *readiness.Hub
	table *hooks.Table
	audit *telemetry.AuditEmitter
	log   zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(hub *readiness.Hub, table *hooks.Table, audit *telemetry.AuditEmitter, log zerolog.Logger) *Handler {
	return &Handler{
		hub:   hub,
		table: table,
		audit: audit,
		log:   log.With().Str("component", "hostlink").Logger(),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and serves the event feed until the host
// disconnects. Replies are written from the read loop, so one connection
// never has concurrent writers.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-shim/hostlink").Start(c.Request.Context(), "hostlink.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	hostID := observability.HostIDFromRequest(c.Request)
	connectedAt := time.Now()

	observability.IncHostlinkActive()
	observability.RecordHostlinkEvent("connect")
	h.audit.Emit(ctx, telemetry.EventHostConnected, "", map[string]any{
		"conn_id": connID,
		"host_id": hostID,
		"ip":      observability.IPFromRequest(c.Request),
	})
	h.log.Info().Str("conn_id", connID).Str("host_id", hostID).Msg("host connected")

	defer func() {
		conn.Close()
		observability.DecHostlinkActive()
		observability.RecordHostlinkEvent("disconnect")
		h.audit.Emit(ctx, telemetry.EventHostDisconnected, "", map[string]any{
			"conn_id":     connID,
			"host_id":     hostID,
			"duration_ms": time.Since(connectedAt).Milliseconds(),
		})
		h.log.Info().Str("conn_id", connID).Msg("host disconnected")
	}()

	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.RecordHostlinkEvent("error")
				h.log.Warn().Str("conn_id", connID).Err(err).Msg("host feed read failed")
			}
			return
		}
		if err := h.dispatch(conn, connID, event); err != nil {
			h.log.Warn().Str("conn_id", connID).Err(err).Msg("host feed write failed")
			return
		}
	}
}

func (h *Handler) dispatch(conn *websocket.Conn, connID string, event Event) error {
	switch event.Type {
	case "ready":
		observability.RecordHostlinkEvent("ready")
		h.hub.MarkReady()
		return conn.WriteJSON(ack{Type: "ready_ack", ConnID: connID})
	case "ping":
		observability.RecordHostlinkEvent("ping")
		return conn.WriteJSON(ack{Type: "pong", ConnID: connID})
	case "classify":
		observability.RecordHostlinkEvent("classify")
		return conn.WriteJSON(h.classify(event))
	default:
		observability.RecordHostlinkEvent("unknown")
		h.log.Debug().Str("type", event.Type).Msg("unknown host event")
		return nil
	}
}

// classify reads the dispatch table at call time: before patching it answers
// with the host's base classifiers, afterwards with the unwrapping ones.
func (h *Handler) classify(event Event) classification {
	res := classification{Type: "classification", TypeLabel: models.TypeLabelText}

	env := event.Envelope
	if env == nil && event.Message != nil {
		env = event.Message.Envelope
	}
	if fn := h.table.MediaKind.Fn(); fn != nil {
		res.MediaKind = fn(env)
	}
	if fn := h.table.TypeLabel.Fn(); fn != nil {
		res.TypeLabel = fn(env)
	}
	if event.Message != nil {
		if fn := h.table.IsUnread.Fn(); fn != nil {
			res.Unread = fn(event.Message)
		}
	}
	return res
}
