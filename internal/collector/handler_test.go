package collector

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func validEvent(messageID string) *event.Event {
	return &event.Event{
		MessageID:  messageID,
		Name:       "button_click",
		Product:    event.ProductContentFactory,
		Timestamp:  time.Now().UTC(),
		Properties: event.Properties{"label": "save"},
	}
}

func postBatch(t *testing.T, h *Handler, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_HealthCheck(t *testing.T) {
	h := NewHandler("key", make(chan *event.Event, 1), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_IngestBatch_RejectsMissingToken(t *testing.T) {
	sink := make(chan *event.Event, 10)
	h := NewHandler("key", sink, zap.NewNop())

	w := postBatch(t, h, "", BatchRequest{Events: []*event.Event{validEvent("1")}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, sink)
}

func TestHandler_IngestBatch_RejectsWrongToken(t *testing.T) {
	sink := make(chan *event.Event, 10)
	h := NewHandler("key", sink, zap.NewNop())

	w := postBatch(t, h, "other-key", BatchRequest{Events: []*event.Event{validEvent("1")}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_IngestBatch_RejectsMalformedBody(t *testing.T) {
	h := NewHandler("key", make(chan *event.Event, 1), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/batch", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer key")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_IngestBatch_AcceptsValidEvents(t *testing.T) {
	sink := make(chan *event.Event, 10)
	h := NewHandler("key", sink, zap.NewNop())

	w := postBatch(t, h, "key", BatchRequest{
		Events: []*event.Event{validEvent("1"), validEvent("2")},
	})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 0, resp.Rejected)
	assert.Len(t, sink, 2)
}

func TestHandler_IngestBatch_RejectsInvalidEventsIndividually(t *testing.T) {
	sink := make(chan *event.Event, 10)
	h := NewHandler("key", sink, zap.NewNop())

	invalid := validEvent("3")
	invalid.Name = ""

	w := postBatch(t, h, "key", BatchRequest{
		Events: []*event.Event{validEvent("1"), invalid, validEvent("2")},
	})

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Len(t, resp.Errors, 1)
	assert.Len(t, sink, 2)
}
