package collector

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/contentfactory/telemetry/event"
)

// BatchRequest is the POST /v1/batch payload, matching the HTTP batch
// transport's wire format.
type BatchRequest struct {
	Events []*event.Event `json:"events" binding:"required"`
}

// BatchResponse reports how many events of a batch were accepted.
type BatchResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler is the collector's HTTP surface: a health probe and the batch
// ingestion route. Accepted events go to the writer's input channel.
type Handler struct {
	apiKey string
	sink   chan<- *event.Event
	router *gin.Engine
	log    *zap.Logger
}

// NewHandler creates the collector handler.
func NewHandler(apiKey string, sink chan<- *event.Event, log *zap.Logger) *Handler {
	h := &Handler{
		apiKey: apiKey,
		sink:   sink,
		router: gin.New(),
		log:    log,
	}

	h.router.Use(gin.Recovery())
	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/v1/batch", h.ingestBatch)
}

// healthCheck handles liveness probes.
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ingestBatch handles POST /v1/batch. Events that fail validation are
// rejected individually; the rest are queued for the storage writer and
// acknowledged with 202.
func (h *Handler) ingestBatch(c *gin.Context) {
	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "missing or invalid bearer token",
		})
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	accepted := 0
	var errors []string

	for i, evt := range req.Events {
		if evt == nil {
			errors = append(errors, "event is null")
			continue
		}
		if err := evt.Validate(); err != nil {
			h.log.Warn("Rejected event in batch",
				zap.Int("index", i),
				zap.Error(err))
			errors = append(errors, err.Error())
			continue
		}

		h.sink <- evt
		accepted++
	}

	h.log.Info("Batch processed",
		zap.Int("accepted", accepted),
		zap.Int("rejected", len(errors)),
		zap.Int("total", len(req.Events)))

	c.JSON(http.StatusAccepted, BatchResponse{
		Accepted: accepted,
		Rejected: len(errors),
		Errors:   errors,
	})
}

func (h *Handler) authorized(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	return ok && token == h.apiKey
}
