package domain

import (
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert cannot be found.
var ErrAlertNotFound = errors.New("alert not found")

// Severity represents the severity level of a rule or alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid returns true if the severity is a known valid value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Rank returns the numeric ordering of the severity: low=1 .. critical=4.
// Unknown severities rank as 0 so they never win a max comparison.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Escalate returns the severity one level above the receiver, capped at critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// MaxSeverity returns the higher ranked of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// AlertType indicates whether an alert stands alone or represents a
// correlated cluster of alerts.
type AlertType string

const (
	// AlertTypeSingle is an alert emitted directly by a rule breach.
	AlertTypeSingle AlertType = "single"
	// AlertTypeCorrelated is a synthetic alert grouping related breaches
	// that likely share a root cause.
	AlertTypeCorrelated AlertType = "correlated"
)

// AlertStatus represents the lifecycle state of an alert.
type AlertStatus string

const (
	// AlertStatusOpen indicates the alert condition is unresolved.
	AlertStatusOpen AlertStatus = "open"
	// AlertStatusResolved indicates the alert has been closed.
	AlertStatusResolved AlertStatus = "resolved"
)

// AlertMetadata carries evaluation context attached to an alert.
type AlertMetadata struct {
	// BreachDurationSeconds is how long the condition held before firing.
	BreachDurationSeconds int `json:"breach_duration_seconds,omitempty"`

	// Condition is the rule condition in display form, e.g. "cpu_usage > 90".
	Condition string `json:"condition,omitempty"`

	// TriggerCount is how many times the source rule has fired so far.
	TriggerCount int `json:"trigger_count,omitempty"`

	// CorrelationCount is the number of matched alerts, set on correlated alerts.
	CorrelationCount int `json:"correlation_count,omitempty"`

	// CorrelatedWith references the correlated alert that absorbed this one.
	CorrelatedWith string `json:"correlated_with,omitempty"`
}

// Alert is the output of the rule engine, optionally rewritten by the
// correlation engine before it reaches the alert sink.
type Alert struct {
	// ID is the unique identifier for this alert.
	ID string `json:"id"`

	// OrganizationID identifies the tenant this alert belongs to.
	OrganizationID string `json:"organization_id"`

	// ServerID identifies the host the breach occurred on.
	ServerID string `json:"server_id"`

	// RuleID references the rule that produced this alert.
	// Empty for correlated alerts, which span multiple rules.
	RuleID string `json:"rule_id,omitempty"`

	// Title is a one-line summary, e.g. "cpu_usage > 90 on web-01".
	Title string `json:"title"`

	// Description is the detailed human-readable explanation.
	Description string `json:"description"`

	// Severity of the alert; correlated alerts may escalate it.
	Severity Severity `json:"severity"`

	// Status is the lifecycle state; alerts are created open.
	Status AlertStatus `json:"status"`

	// MetricName is the metric that breached.
	MetricName string `json:"metric_name,omitempty"`

	// MetricValue is the sample value that triggered the alert.
	MetricValue MetricValue `json:"metric_value,omitempty"`

	// Threshold is the rule threshold that was breached.
	Threshold Threshold `json:"threshold,omitempty"`

	// Tags are free-form labels for routing and search.
	Tags []string `json:"tags,omitempty"`

	// Metadata carries evaluation and correlation context.
	Metadata AlertMetadata `json:"metadata"`

	// Type distinguishes single alerts from correlated ones.
	Type AlertType `json:"type"`

	// PrimaryAlertID is set on correlated alerts and references the alert
	// whose arrival triggered the correlation.
	PrimaryAlertID string `json:"primary_alert_id,omitempty"`

	// NotificationChannels lists delivery targets inherited from the rule.
	NotificationChannels []string `json:"notification_channels,omitempty"`

	// CreatedAt is when the alert was created.
	CreatedAt time.Time `json:"created_at"`
}

// IsCorrelated returns true for synthetic correlated alerts.
func (a *Alert) IsCorrelated() bool {
	return a.Type == AlertTypeCorrelated
}

// BreachMagnitude returns the relative distance of the metric value from the
// threshold, |value-threshold|/threshold. The second return value is false
// when the alert has no usable numeric value/threshold pair.
func (a *Alert) BreachMagnitude() (float64, bool) {
	if !a.MetricValue.Numeric || a.Threshold.Kind != ThresholdNumber || a.Threshold.Number == 0 {
		return 0, false
	}
	diff := a.MetricValue.Number - a.Threshold.Number
	if diff < 0 {
		diff = -diff
	}
	mag := diff / a.Threshold.Number
	if mag < 0 {
		mag = -mag
	}
	return mag, true
}

// AlertFilter provides filtering options for querying alerts.
type AlertFilter struct {
	OrganizationID string
	ServerID       string
	RuleID         string
	Status         AlertStatus
	Type           AlertType
	Limit          int
	Offset         int
}
