// Package httpresolver resolves profiles from a remote profile service over
// HTTP. The service speaks the 3Box-style shape:
//
//	GET {base}/profiles/{address}
//	{"did": "did:3:...", "verified_accounts": {"github": {"username": "alice", "proof": "..."}}}
package httpresolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"credo-referral/internal/identity"
	"credo-referral/internal/platform/metrics"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/circuit"
)

const maxProfileBytes = 1 << 20

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client is an identity.Resolver backed by the remote profile service.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: circuit.New("identity-resolver"),
		logger:  slog.Default(),
		tracer:  otel.Tracer("credo-referral/identity/httpresolver"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type accountWire struct {
	Username string `json:"username"`
	Proof    string `json:"proof,omitempty"`
}

type profileWire struct {
	DID              string                 `json:"did"`
	VerifiedAccounts map[string]accountWire `json:"verified_accounts"`
}

func (c *Client) ResolveProfile(ctx context.Context, address domain.Address) (identity.DIDProfile, error) {
	ctx, span := c.tracer.Start(ctx, "identity.resolve_profile",
		trace.WithAttributes(attribute.String("referral.address", address.String())))
	defer span.End()

	if !c.breaker.Allow() {
		span.SetStatus(codes.Error, "circuit open")
		c.observe("circuit_open", 0)
		return identity.DIDProfile{}, fmt.Errorf("%w: circuit open", identity.ErrResolverUnavailable)
	}

	start := time.Now()
	profile, err := c.fetch(ctx, address)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		c.recordSuccess()
		c.observe("ok", elapsed)
		return profile, nil
	case errors.Is(err, identity.ErrProfileNotFound):
		// The service answered; a missing profile says nothing about its health.
		c.recordSuccess()
		c.observe("not_found", elapsed)
		span.SetStatus(codes.Error, "not found")
		return identity.DIDProfile{}, err
	default:
		c.recordFailure(ctx)
		c.observe("error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolver unavailable")
		return identity.DIDProfile{}, err
	}
}

func (c *Client) fetch(ctx context.Context, address domain.Address) (identity.DIDProfile, error) {
	endpoint := c.baseURL + "/profiles/" + url.PathEscape(address.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return identity.DIDProfile{}, fmt.Errorf("%w: build request: %w", identity.ErrResolverUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return identity.DIDProfile{}, fmt.Errorf("%w: %w", identity.ErrResolverUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return identity.DIDProfile{}, fmt.Errorf("%s: %w", address, identity.ErrProfileNotFound)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return identity.DIDProfile{}, fmt.Errorf("%w: status %d", identity.ErrResolverUnavailable, resp.StatusCode)
	}

	var wire profileWire
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&wire); err != nil {
		return identity.DIDProfile{}, fmt.Errorf("%w: decode profile: %w", identity.ErrResolverUnavailable, err)
	}
	return toProfile(wire, address)
}

func toProfile(wire profileWire, address domain.Address) (identity.DIDProfile, error) {
	services := make([]string, 0, len(wire.VerifiedAccounts))
	for svc := range wire.VerifiedAccounts {
		services = append(services, svc)
	}
	sort.Strings(services)

	accounts := make([]identity.VerifiedAccount, 0, len(services))
	for _, svc := range services {
		accounts = append(accounts, identity.VerifiedAccount{
			Service:  svc,
			Username: wire.VerifiedAccounts[svc].Username,
		})
	}
	profile, err := identity.NewProfile(wire.DID, address, accounts)
	if err != nil {
		return identity.DIDProfile{}, fmt.Errorf("%w: %w", identity.ErrResolverUnavailable, err)
	}
	return profile, nil
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("identity resolver circuit closed", "breaker", c.breaker.Name())
		c.setBreakerGauge(false)
	}
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "identity resolver circuit opened", "breaker", c.breaker.Name())
		c.setBreakerGauge(true)
	}
}

func (c *Client) observe(result string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveResolver(result, d)
	}
}

func (c *Client) setBreakerGauge(open bool) {
	if c.metrics != nil {
		c.metrics.SetBreakerOpen(open)
	}
}
