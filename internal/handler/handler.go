package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadwatch/internal/domain"
	"uploadwatch/internal/service"
)

type Handler struct {
	service service.EventService
	log     *zap.Logger
}

func NewHandler(service service.EventService, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// ReceiveEvent accepts one upload notification per request, either wrapped in
// a CloudEvent (binary or structured mode, the way GCS push subscriptions
// deliver) or as the bare notification JSON. 400 means redelivery cannot
// help; 500 tells the push platform to retry.
func (h *Handler) ReceiveEvent(c *gin.Context) {
	n, err := decodeNotification(c)
	if err != nil {
		h.log.Error("Failed to decode notification", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed notification payload"})
		return
	}

	if err := h.service.HandleUpload(c.Request.Context(), n); err != nil {
		if errors.Is(err, domain.ErrMissingBucket) || errors.Is(err, domain.ErrMissingName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file upload"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func decodeNotification(c *gin.Context) (domain.UploadNotification, error) {
	var n domain.UploadNotification

	if isCloudEvent(c.Request) {
		ev, err := cloudevents.NewEventFromHTTPRequest(c.Request)
		if err != nil {
			return n, fmt.Errorf("decoding cloudevent: %w", err)
		}
		if err := ev.DataAs(&n); err != nil {
			return n, fmt.Errorf("decoding cloudevent data: %w", err)
		}
		return n, nil
	}

	if err := c.ShouldBindJSON(&n); err != nil {
		return n, fmt.Errorf("decoding notification body: %w", err)
	}

	return n, nil
}

func isCloudEvent(r *http.Request) bool {
	// Binary mode carries the envelope in ce-* headers, structured mode in
	// the content type.
	if r.Header.Get("ce-specversion") != "" || r.Header.Get("ce-type") != "" {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/cloudevents")
}
