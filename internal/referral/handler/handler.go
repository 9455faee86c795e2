// Package handler exposes the referral service over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credo-referral/internal/claims"
	"credo-referral/internal/platform/metrics"
	"credo-referral/internal/platform/middleware"
	"credo-referral/internal/referral"
	"credo-referral/internal/trustroot"
	dErrors "credo-referral/pkg/domain-errors"
	"credo-referral/pkg/platform/httputil"
	"credo-referral/pkg/platform/middleware/metadata"
)

// Service defines the referral operations the handler needs.
type Service interface {
	Refer(ctx context.Context, referrer, referee string) (referral.Result, error)
	VerifyClaim(ctx context.Context, token string) (claims.Claim, error)
	IssuerDID() string
}

// Handler handles the referral endpoints.
type Handler struct {
	logger         *slog.Logger
	service        Service
	metrics        *metrics.Metrics
	limiter        *middleware.RateLimiter
	requestTimeout time.Duration
}

// New creates a referral Handler. limiter may be nil to disable rate limiting.
func New(
	service Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	limiter *middleware.RateLimiter,
	requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return &Handler{
		logger:         logger,
		service:        service,
		metrics:        metrics,
		limiter:        limiter,
		requestTimeout: requestTimeout,
	}
}

// Register registers the referral routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(h.requestTimeout))
	router.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		router.Use(middleware.LatencyMiddleware(h.metrics))
	}

	router.Get("/health", h.handleHealth)
	router.Get("/trust-root", h.handleTrustRoot)
	router.Post("/claims/verify", h.handleVerifyClaim)
	if h.limiter != nil {
		router.With(h.limiter.Middleware).Post("/referral", h.handleReferral)
	} else {
		router.Post("/referral", h.handleReferral)
	}

	r.Mount("/", router)
}

func (h *Handler) handleReferral(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := h.decodeReferral(w, r, requestID)
	if !ok {
		return
	}

	res, err := h.service.Refer(ctx, req.Referrer, req.Referee)
	if err != nil {
		h.writeReferralError(ctx, w, requestID, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toReferralResponse(res))
}

// decodeReferral accepts the url-encoded form the browser flow posts as well as JSON.
func (h *Handler) decodeReferral(w http.ResponseWriter, r *http.Request, requestID string) (*ReferralRequest, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/x-www-form-urlencoded" {
		return httputil.DecodeAndPrepare[ReferralRequest](w, r, h.logger, r.Context(), requestID)
	}

	r.Body = http.MaxBytesReader(w, r.Body, httputil.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "invalid referral form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form body"))
		return nil, false
	}
	req := &ReferralRequest{
		Referrer: r.PostForm.Get("referrer"),
		Referee:  r.PostForm.Get("referee"),
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return req, true
}

func (h *Handler) writeReferralError(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	var re *referral.Error
	if !errors.As(err, &re) {
		h.logger.ErrorContext(ctx, "unclassified referral failure",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(dErrors.CodeInternal), Retryable: true})
		return
	}

	resp := ErrorResponse{Error: string(re.Reason), Retryable: re.Retryable()}
	if re.Class() == referral.ClassClient {
		resp.ErrorDescription = describe(re.Reason)
	}
	httputil.WriteJSON(w, StatusFor(re.Reason), resp)
}

func (h *Handler) handleTrustRoot(w http.ResponseWriter, r *http.Request) {
	did := h.service.IssuerDID()
	addr, err := trustroot.AddressFromDID(did)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "trust root DID is malformed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "trust root unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TrustRootResponse{DID: did, Address: addr.String()})
}

func (h *Handler) handleVerifyClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.VerifyClaim(ctx, req.Token)
	if err != nil {
		h.logger.InfoContext(ctx, "claim verification failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:            "invalid_claim",
			ErrorDescription: "claim was not issued by this trust root or is malformed",
		})
		return
	}

	resp := toClaimResponse(c)
	resp.Token = ""
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// StatusFor maps a rejection reason to its HTTP status.
func StatusFor(reason referral.Reason) int {
	switch reason {
	case referral.ReasonInvalidAddress:
		return http.StatusBadRequest
	case referral.ReasonSelfReferral, referral.ReasonUnverifiedIdentity:
		return http.StatusUnprocessableEntity
	case referral.ReasonDuplicateConnection:
		return http.StatusConflict
	case referral.ReasonProfileNotFound:
		return http.StatusFailedDependency
	case referral.ReasonResolverUnavailable, referral.ReasonLedgerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func describe(reason referral.Reason) string {
	switch reason {
	case referral.ReasonInvalidAddress:
		return "referrer and referee must be 0x-prefixed 40 character hex addresses"
	case referral.ReasonSelfReferral:
		return "referrer and referee must be different parties"
	case referral.ReasonUnverifiedIdentity:
		return "both parties need a distinct verified GitHub account"
	case referral.ReasonDuplicateConnection:
		return "this referral has already been recorded"
	default:
		return ""
	}
}
