package service

import (
	"context"
	"fmt"

	"doorcars-storefront/internal/domain"
	"doorcars-storefront/internal/utils"
)

type GateVerdict string

const (
	GateProceed  GateVerdict = "PROCEED"
	GateRedirect GateVerdict = "REDIRECT"
	GateReject   GateVerdict = "REJECT"
)

const (
	MsgSignIn         = "Please login to continue booking"
	MsgUploadDocs     = "Please upload your documents (Aadhaar & DL) from your profile first."
	MsgDocsUnverified = "Your documents must be verified by admin for your second booking."
)

// GateDecision is the eligibility gate's answer. Redirect is set for
// GateRedirect, Reason for GateReject.
type GateDecision struct {
	Verdict  GateVerdict
	Redirect *domain.Redirect
	Reason   error
}

func (d GateDecision) Proceed() bool { return d.Verdict == GateProceed }

// CheckEligibility decides whether a user may go on to payment.
//
// First-time renters only need to have submitted their identity documents;
// anyone with a previous booking needs them verified. Trust is checked before
// locations, and a missing required location is its own rejection.
func CheckEligibility(trust domain.UserTrustState, car domain.Car, locations domain.LocationSelection) GateDecision {
	switch {
	case !trust.IsAuthenticated:
		return redirect(domain.RedirectLogin, utils.LoginRedirectPath(car.ID), MsgSignIn)
	case trust.TotalBookings == 0 && !trust.HasUploadedIdentityDocs:
		return redirect(domain.RedirectProfile, "/profile", MsgUploadDocs)
	case trust.TotalBookings > 0 && !trust.IsDocumentVerified:
		return redirect(domain.RedirectProfile, "/profile", MsgDocsUnverified)
	}

	if car.RequiresLocations() && !locations.Complete() {
		return GateDecision{Verdict: GateReject, Reason: domain.ErrMissingLocations}
	}
	return GateDecision{Verdict: GateProceed}
}

func redirect(target domain.RedirectTarget, path, msg string) GateDecision {
	return GateDecision{
		Verdict:  GateRedirect,
		Redirect: &domain.Redirect{Target: target, Path: path, Message: msg},
	}
}

type eligibilityService struct {
	trust TrustProvider
}

func NewEligibilityService(trust TrustProvider) EligibilityService {
	return &eligibilityService{trust: trust}
}

// CheckEligibility reads the user's trust state at call time, never from an
// earlier snapshot, and applies the gate to it.
func (s *eligibilityService) CheckEligibility(ctx context.Context, sessionID string, car domain.Car, locations domain.LocationSelection) (GateDecision, error) {
	trust, err := s.trust.TrustState(ctx, sessionID)
	if err != nil {
		return GateDecision{}, fmt.Errorf("failed to read trust state: %w", err)
	}
	return CheckEligibility(trust, car, locations), nil
}
