package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/entitlement"
	"github.com/dogtribe/entitlement/pkg/tier"
)

// Handler exposes the engine over a narrow internal HTTP surface for
// deployments where the callers live in other processes. Decisions are
// returned with status 200 whether allowed or denied: a denial is a valid
// result, not a transport error.
type Handler struct {
	eval  *entitlement.Evaluator
	tiers *tier.Manager
	log   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger supplies a structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// New creates a Handler.
// Panics if any required dependency is nil to fail fast during initialization.
func New(eval *entitlement.Evaluator, tiers *tier.Manager, opts ...Option) *Handler {
	if eval == nil {
		panic("httpapi: evaluator is required")
	}
	if tiers == nil {
		panic("httpapi: tier manager is required")
	}

	h := &Handler{
		eval:  eval,
		tiers: tiers,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the engine's route table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/check", h.check)
	r.Post("/v1/commit", h.commit)
	r.Post("/v1/tier-changes", h.applyTierChange)
	r.Get("/v1/users/{userID}/usage", h.usage)
	r.Delete("/v1/users/{userID}", h.purgeUser)
	return r
}

type decisionRequest struct {
	UserID  uuid.UUID       `json:"user_id"`
	Feature catalog.Feature `json:"feature"`
}

func (r decisionRequest) validate() error {
	if r.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	if r.Feature == "" {
		return errors.New("feature is required")
	}
	return nil
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, http.StatusOK, h.eval.Check(r.Context(), req.UserID, req.Feature))
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respond(w, http.StatusOK, h.eval.Commit(r.Context(), req.UserID, req.Feature))
}

type tierChangeRequest struct {
	UserID      uuid.UUID    `json:"user_id"`
	Tier        catalog.Tier `json:"tier"`
	EffectiveAt time.Time    `json:"effective_at,omitzero"`
}

func (r tierChangeRequest) validate() error {
	if r.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	if r.Tier == "" {
		return errors.New("tier is required")
	}
	return nil
}

func (h *Handler) applyTierChange(w http.ResponseWriter, r *http.Request) {
	var req tierChangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	effectiveAt := req.EffectiveAt
	if effectiveAt.IsZero() {
		effectiveAt = time.Now().UTC()
	}

	err := h.tiers.ApplyTierChange(r.Context(), req.UserID, req.Tier, effectiveAt)
	switch {
	case errors.Is(err, tier.ErrUnknownTier):
		h.respondError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		h.log.ErrorContext(r.Context(), "tier change failed",
			"user_id", req.UserID, "tier", req.Tier, "error", err)
		h.respondError(w, http.StatusInternalServerError, errors.New("tier change failed"))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	infos, err := h.eval.Usage(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "usage lookup failed",
			"user_id", userID, "error", err)
		h.respondError(w, http.StatusServiceUnavailable, errors.New("usage lookup failed"))
		return
	}
	h.respond(w, http.StatusOK, map[string]any{"usage": infos})
}

func (h *Handler) purgeUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.tiers.PurgeUser(r.Context(), userID); err != nil {
		h.log.ErrorContext(r.Context(), "user purge failed",
			"user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, errors.New("purge failed"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userIDParam extracts the userID route parameter and writes a 400 when it
// is not a valid UUID.
func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return uuid.Nil, false
	}
	return userID, true
}

type validator interface {
	validate() error
}

// decode parses the JSON body into dst and writes a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst validator) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return false
	}
	if err := dst.validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, err error) {
	h.respond(w, status, map[string]string{"error": err.Error()})
}
