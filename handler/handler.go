package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orochaa/access-logger/cache"
	"github.com/orochaa/access-logger/config"
	"github.com/orochaa/access-logger/model"
	"github.com/orochaa/access-logger/store"
	"github.com/orochaa/access-logger/utils"
)

// ReportRunner triggers one digest run per call.
type ReportRunner interface {
	RunDaily(ctx context.Context) error
	RunMonthly(ctx context.Context) error
}

// ContactSender forwards contact-form submissions by email.
type ContactSender interface {
	SendContactMessage(msg model.ContactMessage) error
}

// AccessHandler handles access logging, report triggers and the contact form
type AccessHandler struct {
	redis  *redis.Client
	store  *store.AccessStore
	cache  *cache.Cache
	email  ContactSender
	digest ReportRunner
	config config.Config
}

// NewAccessHandler creates a new handler with dependency injection
func NewAccessHandler(redisClient *redis.Client, accessStore *store.AccessStore, cacheClient *cache.Cache, contact ContactSender, runner ReportRunner, cfg config.Config) *AccessHandler {
	return &AccessHandler{
		redis:  redisClient,
		store:  accessStore,
		cache:  cacheClient,
		email:  contact,
		digest: runner,
		config: cfg,
	}
}

func (h *AccessHandler) operationCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
}

// LogAccess handles POST /access
// @Summary Log one access event
// @Description Persists one access record with a server-assigned id and UTC timestamp. Client metadata is optional, but a present metadata object must be complete.
// @Tags Access
// @Accept json
// @Produce json
// @Success 201 {object} handler.MessageResponse "Access logged"
// @Failure 400 {object} handler.ErrorResponse "Invalid request body"
// @Failure 500 {object} handler.ErrorResponse "Internal server error"
// @Router /access [post]
func (h *AccessHandler) LogAccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.operationCtx(r)
	defer cancel()

	var input struct {
		AppName string                `json:"appName"`
		Meta    *model.ClientMetadata `json:"meta"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if errs := utils.ValidateLogAccessRequest(input.AppName, input.Meta); len(errs) > 0 {
		log.Warn().Str("app_name", input.AppName).Interface("fields", errs).Msg("Invalid access log request")
		SendJSONValidationError(w, errs)
		return
	}

	record := model.AccessRecord{
		ID:        uuid.New().String(),
		AppName:   input.AppName,
		Timestamp: time.Now().UTC(),
		Meta:      input.Meta,
	}

	if err := h.store.Put(ctx, record); err != nil {
		log.Error().Err(err).Str("app_name", record.AppName).Msg("Failed to store access record")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to store access record")
		return
	}

	log.Info().
		Str("id", record.ID).
		Str("app_name", record.AppName).
		Bool("has_meta", record.Meta != nil).
		Msg("Access logged")

	SendJSONSuccess(w, http.StatusCreated, MessageResponse{Message: "Access logged"})
}

// DailyReport handles POST /report/daily
// @Summary Send the daily access report
// @Description Aggregates the last 24 hours of access records and emails the digest. Intended for a scheduler, safe to trigger by hand.
// @Tags Reports
// @Produce json
// @Success 200 {object} handler.MessageResponse "Report sent"
// @Failure 500 {object} handler.ErrorResponse "Report run failed"
// @Router /report/daily [post]
func (h *AccessHandler) DailyReport(w http.ResponseWriter, r *http.Request) {
	if err := h.digest.RunDaily(r.Context()); err != nil {
		SendJSONError(w, http.StatusInternalServerError, errors.New("internal server error"), "Internal Server Error")
		return
	}

	SendJSONSuccess(w, http.StatusOK, MessageResponse{Message: "Report sent"})
}

// MonthlyReport handles POST /report/monthly
// @Summary Send the monthly access report
// @Description Aggregates the previous calendar month of access records and emails the digest.
// @Tags Reports
// @Produce json
// @Success 200 {object} handler.MessageResponse "Report sent"
// @Failure 500 {object} handler.ErrorResponse "Report run failed"
// @Router /report/monthly [post]
func (h *AccessHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	if err := h.digest.RunMonthly(r.Context()); err != nil {
		SendJSONError(w, http.StatusInternalServerError, errors.New("internal server error"), "Internal Server Error")
		return
	}

	SendJSONSuccess(w, http.StatusOK, MessageResponse{Message: "Report sent"})
}

// Contact handles POST /contact
// @Summary Send a contact message
// @Description Forwards a contact-form submission to the configured recipient and keeps an audit entry.
// @Tags Contact
// @Accept json
// @Produce json
// @Success 200 {object} handler.MessageResponse "Message sent"
// @Failure 400 {object} handler.ErrorResponse "Missing required fields"
// @Failure 500 {object} handler.ErrorResponse "Delivery failed"
// @Router /contact [post]
func (h *AccessHandler) Contact(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.operationCtx(r)
	defer cancel()

	var msg model.ContactMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if errs := utils.ValidateContactRequest(msg); len(errs) > 0 {
		SendJSONValidationError(w, errs)
		return
	}

	msg.ReceivedAt = time.Now().UTC()

	if err := h.email.SendContactMessage(msg); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to send contact message")
		SendJSONError(w, http.StatusInternalServerError, errors.New("internal server error"), "Internal Server Error")
		return
	}

	// Audit trail is best effort; the message already went out.
	if err := h.store.AppendContact(ctx, msg); err != nil {
		log.Error().Err(err).Msg("Failed to store contact message")
	}

	log.Info().Str("subject", msg.Subject).Str("from", msg.Email).Msg("Contact message sent")

	SendJSONSuccess(w, http.StatusOK, MessageResponse{Message: "Message sent"})
}

// HealthCheck handles GET /health
// @Summary Health check
// @Description Returns service health status and Redis connectivity
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Service is healthy"
// @Failure 503 {object} map[string]string "Service is unhealthy"
// @Router /health [get]
func (h *AccessHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unhealthy",
			"redis":  "unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"redis":  "connected",
	})
}

// CacheMetrics handles GET /cache/metrics
// @Summary Cache performance metrics
// @Description Returns hit rate, misses and evictions of the Giphy result cache
// @Tags System
// @Produce json
// @Success 200 {object} cache.MetricsSnapshot "Cache metrics"
// @Failure 503 {object} handler.ErrorResponse "Cache is disabled"
// @Router /cache/metrics [get]
func (h *AccessHandler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	if !h.config.Cache.Enabled || h.cache == nil {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("cache is disabled"), "")
		return
	}

	metrics := h.cache.GetMetricsSnapshot()
	SendJSONSuccess(w, http.StatusOK, metrics)
}
