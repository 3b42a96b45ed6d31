package auth

import (
	"context"
	"slices"
	"time"

	"github.com/goliatone/go-errors"
)

// Feature keys the evaluator knows about. Anything else falls through the
// fail-open default.
const (
	FeatureAllSymbols         = "all_symbols"
	FeatureAllTimeframes      = "all_timeframes"
	FeatureAlerts             = "alerts"
	FeatureWatchlist          = "watchlist"
	FeatureAPIAccess          = "api_access"
	FeatureAdminDashboard     = "admin_dashboard"
	FeatureAffiliateDashboard = "affiliate_dashboard"
	FeatureAffiliateCodes     = "affiliate_codes"
	FeatureCommissionReports  = "commission_reports"
)

// PermissionDecision is the result of evaluating a feature against a session.
type PermissionDecision struct {
	CanAccess    bool     `json:"can_access"`
	Reason       string   `json:"reason,omitempty"`
	RequiredTier Tier     `json:"required_tier,omitempty"`
	RequiredRole UserRole `json:"required_role,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// TierLimitResult reports whether one more item fits under the tier ceiling.
type TierLimitResult struct {
	CanCreate bool `json:"can_create"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
}

// FeatureRule describes how one feature key is gated. Exactly one gate kind
// applies per rule: a tier gate, a role gate, an affiliate gate, or a
// per-tier ceiling that always allows but reports the limit.
type FeatureRule struct {
	RequiredTier     Tier
	RequiredRole     UserRole
	RequireAffiliate bool
	DeniedReason     string
	Limits           map[Tier]int
	LimitReasons     map[Tier]string
}

// PermissionRules is the injected rule set the evaluator runs against. Tests
// substitute their own tables instead of mutating package state.
type PermissionRules struct {
	Features     map[string]FeatureRule
	Entitlements map[Tier]TierEntitlements
}

// DefaultPermissionRules returns the shipped feature table.
func DefaultPermissionRules() PermissionRules {
	return PermissionRules{
		Features: map[string]FeatureRule{
			FeatureAllSymbols: {
				RequiredTier: TierPro,
				DeniedReason: "All symbols require PRO tier subscription",
			},
			FeatureAllTimeframes: {
				RequiredTier: TierPro,
				DeniedReason: "All timeframes require PRO tier subscription",
			},
			FeatureAlerts: {
				Limits: map[Tier]int{TierFree: 5, TierPro: 20},
				LimitReasons: map[Tier]string{
					TierFree: "FREE tier allows 5 alerts maximum",
					TierPro:  "PRO tier allows 20 alerts maximum",
				},
			},
			FeatureWatchlist: {
				Limits: map[Tier]int{TierFree: 5, TierPro: 50},
				LimitReasons: map[Tier]string{
					TierFree: "FREE tier allows 5 watchlist items maximum",
					TierPro:  "PRO tier allows 50 watchlist items maximum",
				},
			},
			FeatureAPIAccess: {
				Limits: map[Tier]int{TierFree: 60, TierPro: 300},
				LimitReasons: map[Tier]string{
					TierFree: "FREE tier: 60 API requests per hour",
					TierPro:  "PRO tier: 300 API requests per hour",
				},
			},
			FeatureAdminDashboard: {
				RequiredRole: RoleAdmin,
				DeniedReason: "Administrator access required",
			},
			FeatureAffiliateDashboard: {
				RequireAffiliate: true,
				DeniedReason:     "Affiliate status required",
			},
			FeatureAffiliateCodes: {
				RequireAffiliate: true,
				DeniedReason:     "Affiliate status required to access codes",
			},
			FeatureCommissionReports: {
				RequireAffiliate: true,
				DeniedReason:     "Affiliate status required to view commissions",
			},
		},
		Entitlements: DefaultTierEntitlements(),
	}
}

// Evaluator answers feature, quota, and market data entitlement questions
// from the claims already embedded in a validated session. It never touches
// storage, so decisions are as stale as the token carrying them.
type Evaluator struct {
	rules        PermissionRules
	logger       Logger
	activitySink ActivitySink
}

// NewEvaluator builds an Evaluator around an injected rule set.
func NewEvaluator(rules PermissionRules) *Evaluator {
	if rules.Features == nil {
		rules.Features = DefaultPermissionRules().Features
	}
	if rules.Entitlements == nil {
		rules.Entitlements = DefaultTierEntitlements()
	}
	return &Evaluator{
		rules:        rules,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (e *Evaluator) WithLogger(logger Logger) *Evaluator {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithActivitySink configures an ActivitySink for recording denials.
func (e *Evaluator) WithActivitySink(sink ActivitySink) *Evaluator {
	e.activitySink = normalizeActivitySink(sink)
	return e
}

// Evaluate runs the feature table against a session. Pure, no I/O.
// The admin bypass is absolute and runs before any feature rule. Unknown
// feature keys default to allowed.
func (e *Evaluator) Evaluate(session Session, feature string) PermissionDecision {
	if session == nil {
		return PermissionDecision{
			CanAccess:    false,
			Reason:       "Authentication required",
			RequiredRole: RoleUser,
		}
	}

	rule, known := e.rules.Features[feature]

	if IsAdminRole(session.GetRole()) {
		return PermissionDecision{
			CanAccess:    true,
			RequiredTier: rule.RequiredTier,
			RequiredRole: rule.RequiredRole,
		}
	}

	if !known {
		return PermissionDecision{
			CanAccess: true,
			Reason:    "Unknown feature - defaulting to allowed",
		}
	}

	if rule.RequiredRole != "" {
		return PermissionDecision{
			CanAccess:    false,
			Reason:       rule.DeniedReason,
			RequiredRole: rule.RequiredRole,
		}
	}

	if rule.RequireAffiliate {
		if session.GetIsAffiliate() {
			return PermissionDecision{CanAccess: true}
		}
		return PermissionDecision{
			CanAccess: false,
			Reason:    rule.DeniedReason,
		}
	}

	if rule.RequiredTier != "" {
		if TierAtLeast(session.GetTier(), rule.RequiredTier) {
			return PermissionDecision{
				CanAccess:    true,
				RequiredTier: rule.RequiredTier,
			}
		}
		return PermissionDecision{
			CanAccess:    false,
			Reason:       rule.DeniedReason,
			RequiredTier: rule.RequiredTier,
		}
	}

	if len(rule.Limits) > 0 {
		tier := session.GetTier()
		return PermissionDecision{
			CanAccess:    true,
			Reason:       rule.LimitReasons[tier],
			RequiredTier: tier,
			Limit:        rule.Limits[tier],
		}
	}

	return PermissionDecision{CanAccess: true}
}

// CheckPermission wraps Evaluate with the typed error taxonomy: role gates
// raise ErrAdminRequired, tier gates ErrTierUpgradeRequired, everything else
// ErrFeatureForbidden. Denials are recorded on the activity sink.
func (e *Evaluator) CheckPermission(ctx context.Context, session Session, feature string) error {
	decision := e.Evaluate(session, feature)
	if decision.CanAccess {
		if _, known := e.rules.Features[feature]; !known {
			e.logger.Warn("permission evaluator fail-open", "feature", feature)
		}
		return nil
	}

	if session == nil {
		return ErrUnauthorized
	}

	e.recordDenial(ctx, session, feature, decision)

	switch {
	case decision.RequiredRole == RoleAdmin:
		return cloneWithReason(ErrAdminRequired, feature, decision)
	case decision.RequiredTier != "":
		return cloneWithReason(ErrTierUpgradeRequired, feature, decision)
	default:
		return cloneWithReason(ErrFeatureForbidden, feature, decision)
	}
}

// CheckTierLimits computes whether one more item fits under the tier's
// ceiling for a quota feature. Unknown or non-quota features are rejected.
func (e *Evaluator) CheckTierLimits(tier Tier, feature string, currentCount int) (TierLimitResult, error) {
	rule, ok := e.rules.Features[feature]
	if !ok || len(rule.Limits) == 0 {
		return TierLimitResult{}, errors.New("feature has no tier quota", errors.CategoryBadInput).
			WithMetadata(map[string]any{"feature": feature})
	}

	normalized, _ := ParseTier(string(tier))
	limit := rule.Limits[normalized]

	remaining := limit - currentCount
	if remaining < 0 {
		remaining = 0
	}

	return TierLimitResult{
		CanCreate: currentCount < limit,
		Remaining: remaining,
		Limit:     limit,
	}, nil
}

// CanAccessSymbol reports set membership of symbol in the tier's table.
func (e *Evaluator) CanAccessSymbol(tier Tier, symbol string) bool {
	return slices.Contains(e.AccessibleSymbols(tier), symbol)
}

// CanAccessTimeframe reports set membership of timeframe in the tier's table.
func (e *Evaluator) CanAccessTimeframe(tier Tier, timeframe string) bool {
	return slices.Contains(e.AccessibleTimeframes(tier), timeframe)
}

// CanAccessCombination requires both the symbol and the timeframe.
func (e *Evaluator) CanAccessCombination(tier Tier, symbol, timeframe string) bool {
	return e.CanAccessSymbol(tier, symbol) && e.CanAccessTimeframe(tier, timeframe)
}

// AccessibleSymbols returns the symbol table for the tier. Unknown tiers get
// the FREE table.
func (e *Evaluator) AccessibleSymbols(tier Tier) []string {
	normalized, _ := ParseTier(string(tier))
	return e.rules.Entitlements[normalized].Symbols
}

// AccessibleTimeframes returns the timeframe table for the tier. Unknown
// tiers get the FREE table.
func (e *Evaluator) AccessibleTimeframes(tier Tier) []string {
	normalized, _ := ParseTier(string(tier))
	return e.rules.Entitlements[normalized].Timeframes
}

// ChartCombinations counts the symbol x timeframe pairs the tier can chart.
func (e *Evaluator) ChartCombinations(tier Tier) int {
	return len(e.AccessibleSymbols(tier)) * len(e.AccessibleTimeframes(tier))
}

func (e *Evaluator) recordDenial(ctx context.Context, session Session, feature string, decision PermissionDecision) {
	event := ActivityEvent{
		EventType:  ActivityEventPermissionsDenied,
		Actor:      ActorRef{ID: session.GetUserID(), Type: "user"},
		UserID:     session.GetUserID(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"feature": feature,
			"reason":  decision.Reason,
			"tier":    session.GetTier(),
			"role":    session.GetRole(),
		},
	}

	if err := normalizeActivitySink(e.activitySink).Record(ctx, event); err != nil {
		e.logger.Warn("activity sink record error: %v", err)
	}
}

func cloneWithReason(base *errors.Error, feature string, decision PermissionDecision) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	if decision.Reason != "" {
		clone.Message = decision.Reason
	}
	clone.Source = base
	return clone.WithMetadata(map[string]any{
		"feature":       feature,
		"required_tier": decision.RequiredTier,
		"required_role": decision.RequiredRole,
	})
}
