package rules

import (
	"testing"
	"time"

	"vigil-go/internal/domain"
)

func TestDecideSuppression(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	old := now.Add(-30 * time.Minute)

	compiled := func(rateLimitMinutes, maxPerHour int) *domain.CompiledRule {
		rule := &domain.Rule{
			ID:             "rule-1",
			OrganizationID: "org-1",
			Name:           "r",
			MetricName:     "cpu_usage",
			Operator:       domain.OperatorGT,
			Threshold:      domain.NumberThreshold(90),
			Severity:       domain.SeverityHigh,
			Enabled:        true,
			Suppression: domain.SuppressionConfig{
				RateLimitMinutes: rateLimitMinutes,
				MaxAlertsPerHour: maxPerHour,
			},
		}
		c, err := rule.Compile()
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		return c
	}

	tests := []struct {
		name          string
		rule          *domain.CompiledRule
		inMaintenance bool
		lastTriggered *time.Time
		recentCount   int
		want          SuppressionReason
	}{
		{
			name: "no policies configured",
			rule: compiled(0, 0),
			want: ReasonNone,
		},
		{
			name:          "maintenance window wins over everything",
			rule:          compiled(10, 1),
			inMaintenance: true,
			lastTriggered: &recent,
			recentCount:   5,
			want:          ReasonMaintenanceWindow,
		},
		{
			name:          "rate limit wins over hourly cap",
			rule:          compiled(10, 1),
			lastTriggered: &recent,
			recentCount:   5,
			want:          ReasonRateLimit,
		},
		{
			name:          "rate limit elapsed",
			rule:          compiled(10, 0),
			lastTriggered: &old,
			want:          ReasonNone,
		},
		{
			name:          "rate limit with no prior trigger",
			rule:          compiled(10, 0),
			lastTriggered: nil,
			want:          ReasonNone,
		},
		{
			name:        "hourly cap reached",
			rule:        compiled(0, 3),
			recentCount: 3,
			want:        ReasonHourlyCap,
		},
		{
			name:        "hourly cap not reached",
			rule:        compiled(0, 3),
			recentCount: 2,
			want:        ReasonNone,
		},
		{
			name:        "unset hourly cap never suppresses",
			rule:        compiled(0, 0),
			recentCount: 100,
			want:        ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &EvaluationState{LastTriggeredAt: tt.lastTriggered}
			got := DecideSuppression(tt.rule, tt.inMaintenance, st, tt.recentCount, now)
			if got.Reason != tt.want {
				t.Errorf("expected reason %q, got %q", tt.want, got.Reason)
			}
			if got.Suppressed != (tt.want != ReasonNone) {
				t.Errorf("suppressed flag inconsistent with reason: %+v", got)
			}
		})
	}
}
