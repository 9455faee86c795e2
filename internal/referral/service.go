// Package referral validates a claimed referral between two addresses and
// issues the signed claim pair when it is admissible.
package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"credo-referral/internal/claims"
	"credo-referral/internal/identity"
	"credo-referral/internal/platform/metrics"
	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/audit"
	"credo-referral/pkg/platform/sentinel"
	"credo-referral/pkg/requestcontext"
)

// Stage is a state in the per-request pipeline. There are no backward
// transitions; each request passes through once.
type Stage string

const (
	StageReceived            Stage = "received"
	StageAddressValidated    Stage = "address_validated"
	StageIdentityResolved    Stage = "identity_resolved"
	StageConnectionValidated Stage = "connection_validated"
	StageClaimsIssued        Stage = "claims_issued"
)

// Issuer produces the claim pair and records the connection atomically.
type Issuer interface {
	Issue(ctx context.Context, referrer, referee domain.Address) (claims.Pair, error)
}

// Result is returned for an issued referral.
type Result struct {
	Referrer  domain.Address
	Referee   domain.Address
	IssuerDID string
	Pair      claims.Pair
}

type Option func(*Service)

func WithAuditor(a audit.Emitter) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

type Service struct {
	resolver  identity.Resolver
	validator *Validator
	issuer    Issuer
	issuerDID string
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(resolver identity.Resolver, validator *Validator, issuer Issuer, issuerDID string, opts ...Option) *Service {
	s := &Service{
		resolver:  resolver,
		validator: validator,
		issuer:    issuer,
		issuerDID: issuerDID,
		logger:    slog.Default(),
		tracer:    otel.Tracer("credo-referral/referral"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Refer runs one request through the pipeline. Every failure is an *Error.
func (s *Service) Refer(ctx context.Context, referrerRaw, refereeRaw string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "referral.refer")
	defer span.End()

	stage := StageReceived
	referrer, referee, err := parsePair(referrerRaw, refereeRaw)
	if err != nil {
		return Result{}, s.fail(ctx, span, stage, "", "", newError(ReasonInvalidAddress, err))
	}
	stage = StageAddressValidated
	span.SetAttributes(
		attribute.String("referral.referrer", referrer.String()),
		attribute.String("referral.referee", referee.String()),
	)

	if err := s.check(s.validator.Screen(ctx, referrer, referee)); err != nil {
		return Result{}, s.fail(ctx, span, stage, referrer, referee, err)
	}

	candidate, rerr := s.resolve(ctx, referrer, referee)
	if rerr != nil {
		return Result{}, s.fail(ctx, span, stage, referrer, referee, rerr)
	}
	stage = StageIdentityResolved

	if err := s.check(s.validator.Validate(ctx, candidate)); err != nil {
		return Result{}, s.fail(ctx, span, stage, referrer, referee, err)
	}
	stage = StageConnectionValidated

	start := time.Now()
	pair, err := s.issuer.Issue(ctx, referrer, referee)
	if err != nil {
		return Result{}, s.fail(ctx, span, stage, referrer, referee, classifyIssueError(err))
	}
	stage = StageClaimsIssued

	if s.metrics != nil {
		s.metrics.ObserveIssue(time.Since(start), 2)
		s.metrics.IncrementOutcome("issued")
	}
	s.logger.InfoContext(ctx, "referral issued",
		"stage", stage,
		"referrer", referrer.String(),
		"referee", referee.String(),
		"connection_id", pair.ConnectionID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.EventReferralIssued, referrer, referee, "", pair.ConnectionID.String())

	return Result{Referrer: referrer, Referee: referee, IssuerDID: s.issuerDID, Pair: pair}, nil
}

// VerifyClaim checks a claim token against this service's trust root.
func (s *Service) VerifyClaim(ctx context.Context, token string) (claims.Claim, error) {
	c, err := claims.Verify(token, s.issuerDID)
	if s.metrics != nil {
		result := "valid"
		if err != nil {
			result = "invalid"
		}
		s.metrics.IncrementVerification(result)
	}
	if err != nil {
		return claims.Claim{}, err
	}
	if s.auditor != nil {
		if err := s.auditor.Emit(ctx, audit.Event{
			Action:       string(audit.EventClaimVerified),
			ConnectionID: c.ConnectionID.String(),
			IssuerDID:    c.IssuerDID,
			RequestID:    requestcontext.RequestID(ctx),
			ClientIP:     requestcontext.ClientIP(ctx),
		}); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "action", audit.EventClaimVerified, "error", err)
		}
	}
	return c, nil
}

// IssuerDID is the public DID claims are signed under.
func (s *Service) IssuerDID() string {
	return s.issuerDID
}

func parsePair(referrerRaw, refereeRaw string) (domain.Address, domain.Address, error) {
	referrer, err := domain.ParseAddress(referrerRaw)
	if err != nil {
		return "", "", fmt.Errorf("referrer: %w", err)
	}
	referee, err := domain.ParseAddress(refereeRaw)
	if err != nil {
		return "", "", fmt.Errorf("referee: %w", err)
	}
	return referrer, referee, nil
}

// resolve looks both profiles up concurrently. The first failure cancels
// the other lookup.
func (s *Service) resolve(ctx context.Context, referrer, referee domain.Address) (Candidate, *Error) {
	c := Candidate{Referrer: referrer, Referee: referee}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.resolver.ResolveProfile(gctx, referrer)
		if err != nil {
			return fmt.Errorf("referrer profile: %w", err)
		}
		c.ReferrerProfile = p
		return nil
	})
	g.Go(func() error {
		p, err := s.resolver.ResolveProfile(gctx, referee)
		if err != nil {
			return fmt.Errorf("referee profile: %w", err)
		}
		c.RefereeProfile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return Candidate{}, newError(ReasonProfileNotFound, err)
		}
		return Candidate{}, newError(ReasonResolverUnavailable, err)
	}
	return c, nil
}

func (s *Service) check(v Verdict, err error) *Error {
	if err != nil {
		return newError(ReasonLedgerUnavailable, err)
	}
	if !v.Admissible {
		return newError(v.Reason, fmt.Errorf("rejected by rule %s", v.Rule))
	}
	return nil
}

func classifyIssueError(err error) *Error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return newError(ReasonDuplicateConnection, err)
	case errors.Is(err, trustroot.ErrSigning):
		return newError(ReasonSigningError, err)
	default:
		return newError(ReasonLedgerUnavailable, err)
	}
}

func (s *Service) fail(ctx context.Context, span trace.Span, stage Stage, referrer, referee domain.Address, err *Error) error {
	span.SetAttributes(attribute.String("referral.reason", string(err.Reason)))
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(err.Reason))
	}

	action := audit.EventReferralRejected
	if err.Class() == ClassInfra {
		action = audit.EventReferralFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, string(err.Reason))
		s.logger.ErrorContext(ctx, "referral failed",
			"stage", stage,
			"reason", err.Reason,
			"error", err.Err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		s.logger.InfoContext(ctx, "referral rejected",
			"stage", stage,
			"reason", err.Reason,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.emit(ctx, action, referrer, referee, string(err.Reason), "")
	return err
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, referrer, referee domain.Address, reason, connectionID string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:       string(action),
		Referrer:     referrer.String(),
		Referee:      referee.String(),
		Reason:       reason,
		ConnectionID: connectionID,
		IssuerDID:    s.issuerDID,
		RequestID:    requestcontext.RequestID(ctx),
		ClientIP:     requestcontext.ClientIP(ctx),
		Client:       requestcontext.Client(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", action, "error", err)
	}
}
