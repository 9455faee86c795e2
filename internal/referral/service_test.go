package referral_test

//go:generate mockgen -source=service.go -destination=mocks/referral_mock.go -package=mocks Issuer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credo-referral/internal/claims"
	"credo-referral/internal/identity"
	identitymocks "credo-referral/internal/identity/mocks"
	"credo-referral/internal/platform/metrics"
	"credo-referral/internal/referral"
	"credo-referral/internal/referral/mocks"
	"credo-referral/internal/trustroot"
	"credo-referral/pkg/domain"
	"credo-referral/pkg/platform/audit"
	auditpublisher "credo-referral/pkg/platform/audit/publisher"
	auditmemory "credo-referral/pkg/platform/audit/store/memory"
	"credo-referral/pkg/platform/sentinel"
)

const (
	rawReferrer = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	rawReferee  = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	issuerDID   = "did:ethr:0x00000000000000000000000000000000000000ff"
)

var (
	referrer = domain.MustParseAddress(rawReferrer)
	referee  = domain.MustParseAddress(rawReferee)
)

type ServiceSuite struct {
	suite.Suite
	resolver *identitymocks.MockResolver
	ledger   *mocks.MockLedgerChecker
	issuer   *mocks.MockIssuer
	audit    *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	service  *referral.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.resolver = identitymocks.NewMockResolver(ctrl)
	s.ledger = mocks.NewMockLedgerChecker(ctrl)
	s.issuer = mocks.NewMockIssuer(ctrl)
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New()

	s.service = referral.NewService(
		s.resolver,
		referral.NewValidator(referral.DefaultRules(s.ledger)),
		s.issuer,
		issuerDID,
		referral.WithAuditor(auditpublisher.NewPublisher(s.audit)),
		referral.WithMetrics(s.metrics),
		referral.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func profile(addr domain.Address, gh string) identity.DIDProfile {
	p := identity.DIDProfile{DID: "did:3:" + addr.String(), Address: addr}
	if gh != "" {
		p.VerifiedAccounts = []identity.VerifiedAccount{{Service: identity.ServiceGitHub, Username: gh}}
	}
	return p
}

func (s *ServiceSuite) expectProfiles(referrerGH, refereeGH string) {
	s.resolver.EXPECT().ResolveProfile(gomock.Any(), referrer).Return(profile(referrer, referrerGH), nil)
	s.resolver.EXPECT().ResolveProfile(gomock.Any(), referee).Return(profile(referee, refereeGH), nil)
}

func (s *ServiceSuite) requireReason(err error, want referral.Reason) *referral.Error {
	var re *referral.Error
	s.Require().ErrorAs(err, &re)
	s.Equal(want, re.Reason)
	return re
}

func (s *ServiceSuite) lastAudit() audit.Event {
	events, err := s.audit.ListAll(context.Background())
	s.Require().NoError(err)
	s.Require().NotEmpty(events)
	return events[len(events)-1]
}

func (s *ServiceSuite) TestIssuesPair() {
	s.expectProfiles("alice", "bob")
	s.ledger.EXPECT().Exists(gomock.Any(), referrer, referee).Return(false, nil)
	pair := claims.Pair{ConnectionID: domain.NewConnectionID()}
	s.issuer.EXPECT().Issue(gomock.Any(), referrer, referee).Return(pair, nil)

	res, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.Require().NoError(err)
	s.True(err == nil, "success must return an untyped nil error")
	s.Equal(referrer, res.Referrer)
	s.Equal(referee, res.Referee)
	s.Equal(issuerDID, res.IssuerDID)
	s.Equal(pair, res.Pair)

	s.Equal(string(audit.EventReferralIssued), s.lastAudit().Action)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReferralOutcomes.WithLabelValues("issued")))
}

func (s *ServiceSuite) TestMalformedAddressNeverReachesResolver() {
	inputs := [][2]string{
		{"0x123", rawReferee},
		{rawReferrer, "0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ"},
		{"", ""},
		{"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", rawReferee},
	}
	for _, in := range inputs {
		_, err := s.service.Refer(context.Background(), in[0], in[1])
		re := s.requireReason(err, referral.ReasonInvalidAddress)
		s.Equal(referral.ClassClient, re.Class())
		s.ErrorIs(err, domain.ErrInvalidAddress)
	}
}

func (s *ServiceSuite) TestSelfReferralRejectedBeforeResolution() {
	lower := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	_, err := s.service.Refer(context.Background(), rawReferrer, lower)
	s.requireReason(err, referral.ReasonSelfReferral)
	s.Equal(string(audit.EventReferralRejected), s.lastAudit().Action)
}

func (s *ServiceSuite) TestUnverifiedIdentity() {
	s.expectProfiles("alice", "")
	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonUnverifiedIdentity)
}

func (s *ServiceSuite) TestSharedGitHubAccountIsSelfReferral() {
	s.expectProfiles("alice", "ALICE")
	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonSelfReferral)
}

func (s *ServiceSuite) TestKnownDuplicateSkipsSigning() {
	s.expectProfiles("alice", "bob")
	s.ledger.EXPECT().Exists(gomock.Any(), referrer, referee).Return(true, nil)

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonDuplicateConnection)
}

func (s *ServiceSuite) TestRaceLostAtInsertIsDuplicate() {
	s.expectProfiles("alice", "bob")
	s.ledger.EXPECT().Exists(gomock.Any(), referrer, referee).Return(false, nil)
	s.issuer.EXPECT().Issue(gomock.Any(), referrer, referee).
		Return(claims.Pair{}, fmt.Errorf("record connection: %w", sentinel.ErrConflict))

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonDuplicateConnection)
}

func (s *ServiceSuite) TestProfileNotFound() {
	s.resolver.EXPECT().ResolveProfile(gomock.Any(), referrer).Return(profile(referrer, "alice"), nil).AnyTimes()
	s.resolver.EXPECT().ResolveProfile(gomock.Any(), referee).Return(identity.DIDProfile{}, identity.ErrProfileNotFound)

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	re := s.requireReason(err, referral.ReasonProfileNotFound)
	s.Equal(referral.ClassInfra, re.Class())
	s.Equal(string(audit.EventReferralFailed), s.lastAudit().Action)
}

func (s *ServiceSuite) TestResolverUnavailable() {
	s.resolver.EXPECT().ResolveProfile(gomock.Any(), gomock.Any()).
		Return(identity.DIDProfile{}, identity.ErrResolverUnavailable).Times(2)

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	re := s.requireReason(err, referral.ReasonResolverUnavailable)
	s.True(re.Retryable())
}

func (s *ServiceSuite) TestSigningError() {
	s.expectProfiles("alice", "bob")
	s.ledger.EXPECT().Exists(gomock.Any(), referrer, referee).Return(false, nil)
	s.issuer.EXPECT().Issue(gomock.Any(), referrer, referee).Return(claims.Pair{}, trustroot.ErrSigning)

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonSigningError)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReferralOutcomes.WithLabelValues("signing_error")))
}

func (s *ServiceSuite) TestLedgerUnavailable() {
	s.expectProfiles("alice", "bob")
	s.ledger.EXPECT().Exists(gomock.Any(), referrer, referee).Return(false, errors.New("dial tcp: refused"))

	_, err := s.service.Refer(context.Background(), rawReferrer, rawReferee)
	s.requireReason(err, referral.ReasonLedgerUnavailable)
}
