package rules

import (
	"time"

	"vigil-go/internal/domain"
)

// SuppressionReason identifies which policy suppressed an alert. The values
// double as metric label values.
type SuppressionReason string

const (
	ReasonNone              SuppressionReason = ""
	ReasonMaintenanceWindow SuppressionReason = "maintenance_window"
	ReasonRateLimit         SuppressionReason = "rate_limit"
	ReasonHourlyCap         SuppressionReason = "hourly_cap"
)

// SuppressionDecision is the outcome of checking the suppression policies
// for a would-be alert.
type SuppressionDecision struct {
	Suppressed bool
	Reason     SuppressionReason
}

// DecideSuppression applies the suppression policies in precedence order:
// maintenance window, then per-rule rate limit, then hourly cap. The first
// policy that applies wins; later policies are not consulted.
//
// All inputs are snapshots taken by the caller before the decision, so a
// single evaluation uses one consistent view of the suppression state.
func DecideSuppression(rule *domain.CompiledRule, inMaintenance bool, last *EvaluationState, recentCount int, now time.Time) SuppressionDecision {
	if inMaintenance {
		return SuppressionDecision{Suppressed: true, Reason: ReasonMaintenanceWindow}
	}

	if rule.Suppression.RateLimitMinutes > 0 && last.LastTriggeredAt != nil {
		window := time.Duration(rule.Suppression.RateLimitMinutes) * time.Minute
		if now.Sub(*last.LastTriggeredAt) < window {
			return SuppressionDecision{Suppressed: true, Reason: ReasonRateLimit}
		}
	}

	if rule.Suppression.MaxAlertsPerHour > 0 && recentCount >= rule.Suppression.MaxAlertsPerHour {
		return SuppressionDecision{Suppressed: true, Reason: ReasonHourlyCap}
	}

	return SuppressionDecision{}
}
