package correlation

import (
	"fmt"
	"strings"
	"time"

	"vigil-go/internal/domain"
)

// Score threshold above which two alerts are considered correlated.
const DefaultScoreThreshold = 0.6

// Factor is one named contribution to a correlation score. Keeping factors
// as typed values makes each heuristic independently testable and lets the
// correlated alert's description cite the contributing reasons verbatim.
type Factor struct {
	Score      float64
	Confidence float64
	Reason     string
}

// Result is the outcome of scoring one alert pair. Score and Confidence are
// clamped to [0,1]; Confidence feeds only the severity escalation decision.
type Result struct {
	Score      float64
	Confidence float64
	Factors    []Factor
}

// Reasons returns the contributing factor reasons joined for display.
func (r Result) Reasons() string {
	reasons := make([]string, 0, len(r.Factors))
	for _, f := range r.Factors {
		reasons = append(reasons, f.Reason)
	}
	return strings.Join(reasons, ", ")
}

// metricPairWeights is the static relatedness table for unordered metric
// pairs. Weights reflect how often the two metrics degrade together.
var metricPairWeights = map[[2]string]float64{
	pairKey("cpu_usage", "memory_usage"):      0.7,
	pairKey("disk_usage", "disk_io"):          0.8,
	pairKey("network_latency", "packet_loss"): 0.9,
	pairKey("response_time", "error_rate"):    0.85,
	pairKey("cpu_usage", "response_time"):     0.6,
	pairKey("memory_usage", "error_rate"):     0.65,
}

// pairKey normalizes an unordered metric pair into a map key.
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// ScorePair computes the correlation score between two alerts. sharedGroup
// reports whether the alerts' servers share a group; the caller resolves it
// so a group lookup failure degrades to "no group match" rather than an
// error here.
func ScorePair(a, b *domain.Alert, sharedGroup bool) Result {
	var result Result
	add := func(f Factor) {
		result.Score += f.Score
		result.Confidence += f.Confidence
		result.Factors = append(result.Factors, f)
	}

	if a.ServerID == b.ServerID {
		add(Factor{Score: 0.4, Confidence: 0.3, Reason: "same server"})
	}
	if sharedGroup {
		add(Factor{Score: 0.3, Confidence: 0.2, Reason: "shared server group"})
	}
	if weight, ok := metricPairWeights[pairKey(a.MetricName, b.MetricName)]; ok {
		add(Factor{
			Score:      weight,
			Confidence: 0.3,
			Reason:     fmt.Sprintf("related metrics (%s, %s)", a.MetricName, b.MetricName),
		})
	}
	if f, ok := severityProximity(a.Severity, b.Severity); ok {
		add(f)
	}
	if f, ok := timeProximity(a.CreatedAt, b.CreatedAt); ok {
		add(f)
	}
	if f, ok := breachProximity(a, b); ok {
		add(f)
	}

	result.Score = clamp01(result.Score)
	result.Confidence = clamp01(result.Confidence)
	return result
}

// severityProximity rewards alerts at the same or an adjacent severity level.
func severityProximity(a, b domain.Severity) (Factor, bool) {
	diff := a.Rank() - b.Rank()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return Factor{Score: 0.2, Confidence: 0.1, Reason: "same severity"}, true
	case 1:
		return Factor{Score: 0.1, Confidence: 0.1, Reason: "adjacent severity"}, true
	default:
		return Factor{}, false
	}
}

// timeProximity rewards alerts created close together in time.
func timeProximity(a, b time.Time) (Factor, bool) {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap < 30*time.Second:
		return Factor{Score: 0.3, Confidence: 0.1, Reason: "within 30s"}, true
	case gap < 2*time.Minute:
		return Factor{Score: 0.2, Confidence: 0.1, Reason: "within 2m"}, true
	case gap < 5*time.Minute:
		return Factor{Score: 0.1, Confidence: 0.1, Reason: "within 5m"}, true
	default:
		return Factor{}, false
	}
}

// breachProximity rewards two breaches of the same metric whose relative
// magnitudes land within 20% of each other.
func breachProximity(a, b *domain.Alert) (Factor, bool) {
	if a.MetricName != b.MetricName {
		return Factor{}, false
	}
	ma, ok := a.BreachMagnitude()
	if !ok {
		return Factor{}, false
	}
	mb, ok := b.BreachMagnitude()
	if !ok {
		return Factor{}, false
	}
	diff := ma - mb
	if diff < 0 {
		diff = -diff
	}
	if diff >= 0.2 {
		return Factor{}, false
	}
	return Factor{Score: 0.15, Reason: "similar breach magnitude"}, true
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
