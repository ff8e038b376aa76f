package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-shim/internal/derive"
	"chat-shim/internal/hooks"
	"chat-shim/internal/host"
	"chat-shim/internal/mocks"
	"chat-shim/internal/models"
	"chat-shim/internal/readiness"
	"chat-shim/internal/telemetry"
)

func opsRouter(s Surface, enabled bool, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, s, enabled, token)
	return r
}

func tableWithFind(find hooks.FindChatFn) *hooks.Table {
	return hooks.NewTable(zerolog.Nop(), hooks.Originals{FindChat: find})
}

func TestHealthzOpenWithoutToken(t *testing.T) {
	s := Surface{
		Table:         tableWithFind(nil),
		Hub:           readiness.NewHub(zerolog.Nop()),
		PublisherMode: "noop",
	}
	router := opsRouter(s, true, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["ready"])
	assert.Equal(t, "noop", resp["publisher"])
}

func TestMetricsExposed(t *testing.T) {
	router := opsRouter(Surface{Table: tableWithFind(nil)}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatshim_hostlink_active_connections")
}

func TestDebugRequiresToken(t *testing.T) {
	s := Surface{Table: tableWithFind(func(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
		return nil, host.ErrChatNotFound
	})}
	router := opsRouter(s, true, "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/debug/chats/9823475610@lid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/chats/9823475610@lid", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/chats/9823475610@lid", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugFindChat(t *testing.T) {
	id := models.MustChatID("9823475610@lid")
	record := &models.ChatRecord{ID: id, Name: "dana"}
	s := Surface{Table: tableWithFind(func(ctx context.Context, got models.ChatID) (*models.ChatRecord, error) {
		if got == id {
			return record, nil
		}
		return nil, host.ErrChatNotFound
	})}
	router := opsRouter(s, true, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/chats/9823475610@lid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "9823475610@lid", resp["id"])
	assert.Equal(t, "dana", resp["name"])
}

func TestDebugFindChatInvalidID(t *testing.T) {
	router := opsRouter(Surface{Table: tableWithFind(nil)}, true, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/chats/not-an-id", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatAttributes(t *testing.T) {
	id := models.MustChatID("9823475610@lid")
	record := &models.ChatRecord{ID: id, UnreadCount: 2}

	reg := derive.NewRegistry(zerolog.Nop())
	reg.Install(models.AttrHasUnread, func(rec *models.ChatRecord) any { return rec.UnreadCount > 0 })
	reg.Install(models.AttrVisibleInList, func(rec *models.ChatRecord) any { return !rec.Hidden })

	s := Surface{
		Table: tableWithFind(func(ctx context.Context, got models.ChatID) (*models.ChatRecord, error) {
			return record, nil
		}),
		Derived: reg,
	}
	router := opsRouter(s, true, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/chats/9823475610@lid/attributes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ChatID     string         `json:"chat_id"`
		Attributes map[string]any `json:"attributes"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "9823475610@lid", resp.ChatID)
	assert.Equal(t, true, resp.Attributes["has_unread"])
	assert.Equal(t, true, resp.Attributes["visible_in_list"])
}

func TestDebugDisabled(t *testing.T) {
	router := opsRouter(Surface{Table: tableWithFind(nil)}, false, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuditTestWithoutEmitter(t *testing.T) {
	router := opsRouter(Surface{Table: tableWithFind(nil)}, true, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuditTestPublishes(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "chatshim.audit", mock.Anything).Return(nil).Once()
	emitter := telemetry.NewAuditEmitter(pub, "chatshim.audit", "chat-shim", "test", zerolog.Nop())

	router := opsRouter(Surface{Table: tableWithFind(nil), Audit: emitter}, true, "")

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	pub.AssertExpectations(t)
}
