package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vigil-go/internal/clock"
	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
	"vigil-go/internal/store"
)

// Engine evaluates metric samples against the rules in its Store and emits
// alerts once a condition has held for the rule's threshold duration and no
// suppression policy applies. One Engine serves one shard and must only be
// driven by that shard's worker goroutine.
type Engine struct {
	rules       *Store
	maintenance store.MaintenanceWindowRepository
	servers     store.ServerRepository
	counter     store.RecentAlertCounter
	clock       clock.Clock
	logger      *slog.Logger
}

// NewEngine creates a rule engine bound to the given store and lookups.
func NewEngine(
	rules *Store,
	maintenance store.MaintenanceWindowRepository,
	servers store.ServerRepository,
	counter store.RecentAlertCounter,
	clk clock.Clock,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		rules:       rules,
		maintenance: maintenance,
		servers:     servers,
		counter:     counter,
		clock:       clk,
		logger:      logger,
	}
}

// Evaluate runs every applicable rule against every sample in the batch and
// returns the alerts that fired. Samples that fail validation are skipped
// and logged; a bad sample never aborts the batch.
func (e *Engine) Evaluate(ctx context.Context, samples []domain.MetricSample) []*domain.Alert {
	start := time.Now()
	snapshot := e.rules.Snapshot()

	var alerts []*domain.Alert
	for i := range samples {
		sample := &samples[i]
		if err := sample.Validate(); err != nil {
			e.logger.Warn("skipping invalid sample", "error", err)
			continue
		}

		for _, rule := range snapshot {
			if !rule.AppliesTo(sample) {
				continue
			}
			metrics.RulesEvaluatedTotal.Inc()

			if alert := e.evaluateRule(ctx, rule, sample); alert != nil {
				alerts = append(alerts, alert)
			}
		}
	}

	metrics.RuleEvaluationLatency.Observe(time.Since(start).Seconds())
	return alerts
}

// evaluateRule advances the hysteresis state machine for one (rule, sample)
// pair and returns an alert if one fires this cycle.
func (e *Engine) evaluateRule(ctx context.Context, rule *domain.CompiledRule, sample *domain.MetricSample) *domain.Alert {
	matched, applicable := rule.Matches(sample.Value)
	if !applicable {
		e.logger.Debug("sample value not applicable to rule operator",
			"rule_id", rule.ID,
			"metric", sample.MetricName,
			"operator", rule.Operator,
		)
		return nil
	}

	if !matched {
		// Condition went false: the sustained-breach window restarts.
		if st, ok := e.rules.PeekState(rule.ID, sample.ServerID); ok {
			st.BreachStart = nil
		}
		return nil
	}

	now := e.clock.Now()
	st := e.rules.StateFor(rule.ID, sample.ServerID)
	if st.BreachStart == nil {
		ts := sample.Timestamp
		st.BreachStart = &ts
		metrics.BreachesDetectedTotal.Inc()
	}

	breachDuration := now.Sub(*st.BreachStart)
	if breachDuration < rule.ThresholdDuration() {
		return nil
	}

	decision := e.checkSuppression(ctx, rule, sample.ServerID, st, now)
	if decision.Suppressed {
		// The breach window keeps accruing while suppressed, so the alert
		// fires on the first evaluation after suppression lifts.
		metrics.AlertsSuppressedTotal.WithLabelValues(string(decision.Reason)).Inc()
		e.logger.Debug("alert suppressed",
			"rule_id", rule.ID,
			"server_id", sample.ServerID,
			"reason", decision.Reason,
		)
		return nil
	}

	st.LastTriggeredAt = &now
	st.TriggerCount++
	st.BreachStart = nil

	if err := e.counter.Record(ctx, rule.ID, now); err != nil {
		e.logger.Warn("failed to record alert emission",
			"rule_id", rule.ID,
			"error", err,
		)
	}

	metrics.AlertsCreatedTotal.WithLabelValues(string(domain.AlertTypeSingle)).Inc()
	return e.buildAlert(ctx, rule, sample, breachDuration, st.TriggerCount, now)
}

// checkSuppression snapshots the suppression inputs and applies the policies.
// Lookup failures fail open: an unreachable store must never silence a real
// alert, and must never suppress one either.
func (e *Engine) checkSuppression(ctx context.Context, rule *domain.CompiledRule, serverID string, st *EvaluationState, now time.Time) SuppressionDecision {
	inMaintenance, err := e.maintenance.ActiveForServer(ctx, serverID, now)
	if err != nil {
		e.logger.Warn("maintenance window lookup failed, treating as not suppressed",
			"server_id", serverID,
			"error", err,
		)
		inMaintenance = false
	}

	recentCount := 0
	if rule.Suppression.MaxAlertsPerHour > 0 {
		recentCount, err = e.counter.CountSince(ctx, rule.ID, now.Add(-time.Hour))
		if err != nil {
			e.logger.Warn("recent alert count lookup failed, hourly cap not applied",
				"rule_id", rule.ID,
				"error", err,
			)
			recentCount = 0
		}
	}

	return DecideSuppression(rule, inMaintenance, st, recentCount, now)
}

// buildAlert assembles the alert for a fired rule.
func (e *Engine) buildAlert(ctx context.Context, rule *domain.CompiledRule, sample *domain.MetricSample, breachDuration time.Duration, triggerCount int, now time.Time) *domain.Alert {
	serverName := sample.ServerID
	if srv, err := e.servers.GetByID(ctx, sample.ServerID); err == nil {
		serverName = srv.Name
	}

	return &domain.Alert{
		ID:             uuid.New().String(),
		OrganizationID: sample.OrganizationID,
		ServerID:       sample.ServerID,
		RuleID:         rule.ID,
		Title:          fmt.Sprintf("%s %s %s on %s", rule.MetricName, rule.Operator, rule.Threshold, serverName),
		Description: fmt.Sprintf("Rule %q: %s held for %ds on %s (current value %s)",
			rule.Name, rule.Condition(), int(breachDuration.Seconds()), serverName, sample.Value),
		Severity:    rule.Severity,
		Status:      domain.AlertStatusOpen,
		MetricName:  sample.MetricName,
		MetricValue: sample.Value,
		Threshold:   rule.Threshold,
		Tags:        []string{sample.MetricName, string(rule.Severity)},
		Metadata: domain.AlertMetadata{
			BreachDurationSeconds: int(breachDuration.Seconds()),
			Condition:             rule.Condition(),
			TriggerCount:          triggerCount,
		},
		Type:                 domain.AlertTypeSingle,
		NotificationChannels: rule.NotificationChannels,
		CreatedAt:            now,
	}
}
