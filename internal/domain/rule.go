package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default breach duration a condition must hold before an alert fires.
const DefaultThresholdDurationSeconds = 300

// Operator is the comparison applied between a sample value and a rule threshold.
type Operator string

const (
	OperatorGT          Operator = ">"
	OperatorLT          Operator = "<"
	OperatorGTE         Operator = ">="
	OperatorLTE         Operator = "<="
	OperatorEQ          Operator = "=="
	OperatorNEQ         Operator = "!="
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorRegex       Operator = "regex"
	OperatorIn          Operator = "in"
	OperatorNotIn       Operator = "not_in"
)

// IsValid returns true if the operator is a known valid value.
func (o Operator) IsValid() bool {
	switch o {
	case OperatorGT, OperatorLT, OperatorGTE, OperatorLTE,
		OperatorEQ, OperatorNEQ,
		OperatorContains, OperatorNotContains,
		OperatorRegex, OperatorIn, OperatorNotIn:
		return true
	default:
		return false
	}
}

// ThresholdKind discriminates the threshold variant.
type ThresholdKind string

const (
	ThresholdNumber ThresholdKind = "number"
	ThresholdText   ThresholdKind = "text"
	ThresholdList   ThresholdKind = "list"
)

// Threshold is the polymorphic comparison target of a rule.
// Numeric operators require a number, regex requires text, and the
// membership operators require a list.
type Threshold struct {
	Kind   ThresholdKind
	Number float64
	Text   string
	List   []string
}

// NumberThreshold creates a numeric threshold.
func NumberThreshold(f float64) Threshold {
	return Threshold{Kind: ThresholdNumber, Number: f}
}

// TextThreshold creates a textual threshold.
func TextThreshold(s string) Threshold {
	return Threshold{Kind: ThresholdText, Text: s}
}

// ListThreshold creates a list threshold for in/not_in operators.
func ListThreshold(items ...string) Threshold {
	return Threshold{Kind: ThresholdList, List: items}
}

// String returns the display form used in alert titles and conditions.
func (t Threshold) String() string {
	switch t.Kind {
	case ThresholdNumber:
		return strconv.FormatFloat(t.Number, 'f', -1, 64)
	case ThresholdList:
		out, _ := json.Marshal(t.List)
		return string(out)
	default:
		return t.Text
	}
}

// UnmarshalJSON accepts a JSON number, string, or array of scalars.
func (t *Threshold) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case float64:
		*t = NumberThreshold(val)
	case string:
		*t = TextThreshold(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			switch e := item.(type) {
			case string:
				items = append(items, e)
			case float64:
				items = append(items, strconv.FormatFloat(e, 'f', -1, 64))
			default:
				return errors.New("threshold list items must be strings or numbers")
			}
		}
		*t = ListThreshold(items...)
	default:
		return errors.New("threshold must be a number, string, or list")
	}
	return nil
}

// MarshalJSON emits the natural JSON form of the variant.
func (t Threshold) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case ThresholdNumber:
		return json.Marshal(t.Number)
	case ThresholdList:
		return json.Marshal(t.List)
	default:
		return json.Marshal(t.Text)
	}
}

// SuppressionConfig holds per-rule rate policies. Zero values mean unset.
type SuppressionConfig struct {
	// RateLimitMinutes is the minimum gap between two alerts from this rule.
	RateLimitMinutes int `json:"rate_limit_minutes,omitempty"`

	// MaxAlertsPerHour caps how many alerts this rule may emit in any
	// trailing one-hour window.
	MaxAlertsPerHour int `json:"max_alerts_per_hour,omitempty"`
}

// Rule is an alerting policy evaluated against incoming metric samples.
// Rules are managed through the API and are read-only to the engine after
// compilation.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string `json:"id"`

	// OrganizationID scopes the rule to a single tenant.
	OrganizationID string `json:"organization_id"`

	// ServerID optionally restricts the rule to one host. Empty means the
	// rule applies to every host in the organization.
	ServerID string `json:"server_id,omitempty"`

	// Name is a human-readable name used in alert descriptions.
	Name string `json:"name"`

	// MetricName selects which samples this rule evaluates.
	MetricName string `json:"metric_name"`

	// Operator is the comparison to apply.
	Operator Operator `json:"operator"`

	// Threshold is the comparison target.
	Threshold Threshold `json:"threshold"`

	// ThresholdDurationSeconds is how long the condition must hold
	// continuously before an alert fires.
	ThresholdDurationSeconds int `json:"threshold_duration_seconds"`

	// Severity assigned to alerts emitted by this rule.
	Severity Severity `json:"severity"`

	// Enabled gates evaluation; disabled rules are skipped entirely.
	Enabled bool `json:"enabled"`

	// NotificationChannels lists delivery targets for emitted alerts.
	NotificationChannels []string `json:"notification_channels,omitempty"`

	// Suppression holds the rule's rate policies.
	Suppression SuppressionConfig `json:"suppression_rules"`

	// EscalationPolicy names an external escalation policy, if any.
	EscalationPolicy string `json:"escalation_policy,omitempty"`

	// CreatedAt is when the rule was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the rule was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation errors for Rule.
var (
	ErrEmptyRuleName      = errors.New("name is required")
	ErrInvalidOperator    = errors.New("operator is not recognized")
	ErrInvalidSeverity    = errors.New("severity must be low, medium, high, or critical")
	ErrInvalidDuration    = errors.New("threshold_duration_seconds must not be negative")
	ErrRuleNotFound       = errors.New("rule not found")
	ErrRuleAlreadyExists  = errors.New("rule already exists")
	ErrThresholdMismatch  = errors.New("threshold type does not match operator")
	ErrInvalidRulePattern = errors.New("regex threshold does not compile")
)

// Validate checks if the rule has all required fields with valid values.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	if r.OrganizationID == "" {
		return ErrEmptyOrganizationID
	}
	if r.MetricName == "" {
		return ErrEmptyMetricName
	}
	if !r.Operator.IsValid() {
		return ErrInvalidOperator
	}
	if !r.Severity.IsValid() {
		return ErrInvalidSeverity
	}
	if r.ThresholdDurationSeconds < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// ThresholdDuration returns the breach duration as a time.Duration,
// applying the default when unset.
func (r *Rule) ThresholdDuration() time.Duration {
	secs := r.ThresholdDurationSeconds
	if secs == 0 {
		secs = DefaultThresholdDurationSeconds
	}
	return time.Duration(secs) * time.Second
}

// AppliesTo reports whether this rule should evaluate the given sample.
func (r *Rule) AppliesTo(sample *MetricSample) bool {
	if !r.Enabled {
		return false
	}
	if r.OrganizationID != sample.OrganizationID {
		return false
	}
	if r.MetricName != sample.MetricName {
		return false
	}
	if r.ServerID != "" && r.ServerID != sample.ServerID {
		return false
	}
	return true
}

// Condition returns the rule's condition in display form, e.g. "cpu_usage > 90".
func (r *Rule) Condition() string {
	return fmt.Sprintf("%s %s %s", r.MetricName, r.Operator, r.Threshold)
}

// CompiledRule is a rule whose threshold/operator pairing has been verified
// and whose regex (if any) has been compiled. Only compiled rules enter the
// rule store; compilation failures surface once at load time rather than on
// every sample.
type CompiledRule struct {
	Rule

	// Pattern is the compiled regex for OperatorRegex rules, nil otherwise.
	Pattern *regexp.Regexp
}

// Compile validates the operator/threshold pairing and compiles the regex
// pattern for regex rules. A failure here is a configuration error: the
// caller is expected to disable the rule and report it.
func (r *Rule) Compile() (*CompiledRule, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	compiled := &CompiledRule{Rule: *r}

	switch r.Operator {
	case OperatorGT, OperatorLT, OperatorGTE, OperatorLTE:
		if r.Threshold.Kind != ThresholdNumber {
			return nil, fmt.Errorf("%w: operator %q needs a numeric threshold", ErrThresholdMismatch, r.Operator)
		}
	case OperatorIn, OperatorNotIn:
		if r.Threshold.Kind != ThresholdList {
			return nil, fmt.Errorf("%w: operator %q needs a list threshold", ErrThresholdMismatch, r.Operator)
		}
	case OperatorRegex:
		if r.Threshold.Kind == ThresholdList {
			return nil, fmt.Errorf("%w: operator %q needs a text threshold", ErrThresholdMismatch, r.Operator)
		}
		pattern, err := regexp.Compile(r.Threshold.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRulePattern, err)
		}
		compiled.Pattern = pattern
	}

	return compiled, nil
}

// Matches evaluates the rule condition against a sample value.
// The second return value is false when the comparison is not applicable to
// the value's type (for example a numeric operator against a textual value);
// such samples are skipped without error.
func (c *CompiledRule) Matches(value MetricValue) (matched, applicable bool) {
	switch c.Operator {
	case OperatorGT:
		if !value.Numeric {
			return false, false
		}
		return value.Number > c.Threshold.Number, true
	case OperatorLT:
		if !value.Numeric {
			return false, false
		}
		return value.Number < c.Threshold.Number, true
	case OperatorGTE:
		if !value.Numeric {
			return false, false
		}
		return value.Number >= c.Threshold.Number, true
	case OperatorLTE:
		if !value.Numeric {
			return false, false
		}
		return value.Number <= c.Threshold.Number, true
	case OperatorEQ:
		return c.looseEqual(value), true
	case OperatorNEQ:
		return !c.looseEqual(value), true
	case OperatorContains:
		return strings.Contains(value.String(), c.Threshold.String()), true
	case OperatorNotContains:
		return !strings.Contains(value.String(), c.Threshold.String()), true
	case OperatorRegex:
		return c.Pattern.MatchString(value.String()), true
	case OperatorIn:
		return c.inList(value), true
	case OperatorNotIn:
		return !c.inList(value), true
	default:
		// Unreachable for compiled rules; Compile rejects unknown operators.
		return false, false
	}
}

// looseEqual compares a sample value to the threshold using the threshold's
// type: numeric thresholds compare numerically, everything else compares the
// stringified forms.
func (c *CompiledRule) looseEqual(value MetricValue) bool {
	if c.Threshold.Kind == ThresholdNumber {
		return value.Numeric && value.Number == c.Threshold.Number
	}
	return value.String() == c.Threshold.String()
}

// inList tests membership of the stringified value in the list threshold.
func (c *CompiledRule) inList(value MetricValue) bool {
	s := value.String()
	for _, item := range c.Threshold.List {
		if s == item {
			return true
		}
	}
	return false
}

// CreateRuleRequest represents the input for creating a new rule.
type CreateRuleRequest struct {
	OrganizationID           string            `json:"organization_id"`
	ServerID                 string            `json:"server_id"`
	Name                     string            `json:"name"`
	MetricName               string            `json:"metric_name"`
	Operator                 Operator          `json:"operator"`
	Threshold                Threshold         `json:"threshold"`
	ThresholdDurationSeconds int               `json:"threshold_duration_seconds"`
	Severity                 Severity          `json:"severity"`
	Enabled                  *bool             `json:"enabled"`
	NotificationChannels     []string          `json:"notification_channels"`
	Suppression              SuppressionConfig `json:"suppression_rules"`
	EscalationPolicy         string            `json:"escalation_policy"`
}

// ToRule converts the request to a Rule entity. New rules are enabled
// unless the request says otherwise.
func (req *CreateRuleRequest) ToRule(id string) *Rule {
	now := time.Now().UTC()
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return &Rule{
		ID:                       id,
		OrganizationID:           req.OrganizationID,
		ServerID:                 req.ServerID,
		Name:                     req.Name,
		MetricName:               req.MetricName,
		Operator:                 req.Operator,
		Threshold:                req.Threshold,
		ThresholdDurationSeconds: req.ThresholdDurationSeconds,
		Severity:                 req.Severity,
		Enabled:                  enabled,
		NotificationChannels:     req.NotificationChannels,
		Suppression:              req.Suppression,
		EscalationPolicy:         req.EscalationPolicy,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// UpdateRuleRequest represents the input for updating an existing rule.
type UpdateRuleRequest struct {
	ServerID                 string            `json:"server_id"`
	Name                     string            `json:"name"`
	MetricName               string            `json:"metric_name"`
	Operator                 Operator          `json:"operator"`
	Threshold                Threshold         `json:"threshold"`
	ThresholdDurationSeconds int               `json:"threshold_duration_seconds"`
	Severity                 Severity          `json:"severity"`
	Enabled                  *bool             `json:"enabled"`
	NotificationChannels     []string          `json:"notification_channels"`
	Suppression              SuppressionConfig `json:"suppression_rules"`
	EscalationPolicy         string            `json:"escalation_policy"`
}

// ApplyTo updates an existing Rule with the request values.
func (req *UpdateRuleRequest) ApplyTo(rule *Rule) {
	rule.ServerID = req.ServerID
	rule.Name = req.Name
	rule.MetricName = req.MetricName
	rule.Operator = req.Operator
	rule.Threshold = req.Threshold
	rule.ThresholdDurationSeconds = req.ThresholdDurationSeconds
	rule.Severity = req.Severity
	if req.Enabled != nil {
		rule.Enabled = *req.Enabled
	}
	rule.NotificationChannels = req.NotificationChannels
	rule.Suppression = req.Suppression
	rule.EscalationPolicy = req.EscalationPolicy
	rule.UpdatedAt = time.Now().UTC()
}
