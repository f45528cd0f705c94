// Package domain contains the core business entities and value objects for VigilGo.
// These models represent the ubiquitous language of the infrastructure alerting domain.
package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// MetricSample is a single measurement reported by a monitored host.
// Samples are immutable once received; each one is consumed exactly once
// per evaluation cycle.
type MetricSample struct {
	// ServerID identifies the host that produced this sample.
	ServerID string `json:"server_id"`

	// OrganizationID identifies the tenant the host belongs to.
	// It doubles as the shard key: all samples for one organization
	// are processed by a single worker.
	OrganizationID string `json:"organization_id"`

	// MetricName is the measurement name, e.g. "cpu_usage".
	MetricName string `json:"metric_name"`

	// Value is the measured value. Agents usually send numbers, but
	// string-valued metrics (service states, versions) are accepted too.
	Value MetricValue `json:"value"`

	// Timestamp is when the sample was taken at the source.
	Timestamp time.Time `json:"timestamp"`
}

// Validation errors for MetricSample.
var (
	ErrEmptyServerID       = errors.New("server_id is required")
	ErrEmptyOrganizationID = errors.New("organization_id is required")
	ErrEmptyMetricName     = errors.New("metric_name is required")
)

// Validate checks if the sample has all required fields.
func (s *MetricSample) Validate() error {
	if s.ServerID == "" {
		return ErrEmptyServerID
	}
	if s.OrganizationID == "" {
		return ErrEmptyOrganizationID
	}
	if s.MetricName == "" {
		return ErrEmptyMetricName
	}
	return nil
}

// MetricValue holds a sample value that may be numeric or textual.
// Numeric operators only apply when Numeric is true; string operators
// work on the stringified form either way.
type MetricValue struct {
	Number  float64
	Text    string
	Numeric bool
}

// NumberValue creates a numeric metric value.
func NumberValue(f float64) MetricValue {
	return MetricValue{Number: f, Numeric: true}
}

// TextValue creates a textual metric value. Strings that parse as numbers
// are treated as numeric as well, matching how agents serialize gauges.
func TextValue(s string) MetricValue {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return MetricValue{Number: f, Text: s, Numeric: true}
	}
	return MetricValue{Text: s}
}

// String returns the canonical textual form of the value.
func (v MetricValue) String() string {
	if v.Text != "" {
		return v.Text
	}
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return ""
}

// UnmarshalJSON accepts a JSON number, a string, or a boolean.
func (v *MetricValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case float64:
		*v = NumberValue(val)
	case string:
		*v = TextValue(val)
	case bool:
		*v = TextValue(strconv.FormatBool(val))
	case nil:
		*v = MetricValue{}
	default:
		return errors.New("metric value must be a number, string, or boolean")
	}
	return nil
}

// MarshalJSON emits the numeric form when possible, the text form otherwise.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.Numeric && v.Text == "" {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.String())
}
