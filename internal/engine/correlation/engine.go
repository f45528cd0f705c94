package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"vigil-go/internal/clock"
	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
	"vigil-go/internal/store"
)

// DefaultWindow is how long an alert remains a correlation candidate.
const DefaultWindow = 5 * time.Minute

// match pairs a candidate with its score against the incoming alert.
type match struct {
	candidate *Candidate
	result    Result
}

// Engine scores each newly created alert against the recent alerts of its
// shard and folds clusters into a single correlated alert. One Engine serves
// one shard and must only be driven by that shard's worker goroutine.
type Engine struct {
	candidates *Store
	servers    store.ServerRepository
	window     time.Duration
	threshold  float64
	clock      clock.Clock
	logger     *slog.Logger
}

// NewEngine creates a correlation engine. Zero window and threshold values
// select the defaults.
func NewEngine(candidates *Store, servers store.ServerRepository, window time.Duration, threshold float64, clk clock.Clock, logger *slog.Logger) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	return &Engine{
		candidates: candidates,
		servers:    servers,
		window:     window,
		threshold:  threshold,
		clock:      clk,
		logger:     logger,
	}
}

// Process runs correlation for a single alert. It returns either the
// original alert unchanged or a new synthetic correlated alert that absorbs
// the matched candidates.
func (e *Engine) Process(ctx context.Context, alert *domain.Alert) *domain.Alert {
	start := time.Now()
	defer func() {
		metrics.CorrelationLatency.Observe(time.Since(start).Seconds())
	}()

	now := e.clock.Now()
	e.candidates.Evict(now.Add(-e.window))
	incoming := e.candidates.Add(alert, now)

	groups := e.groupsFor(ctx, alert.ServerID)

	var matches []match
	for _, cand := range e.candidates.All() {
		if cand == incoming {
			continue
		}
		shared := e.sharesGroup(ctx, groups, cand.Alert.ServerID)
		result := ScorePair(alert, cand.Alert, shared)
		if result.Score >= e.threshold {
			matches = append(matches, match{candidate: cand, result: result})
		}
	}

	if len(matches) == 0 {
		return alert
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].result.Score > matches[j].result.Score
	})

	correlated := e.buildCorrelatedAlert(alert, matches, now)

	for _, m := range matches {
		m.candidate.Alert.Metadata.CorrelatedWith = correlated.ID
		m.candidate.Matches = append(m.candidate.Matches, MatchRef{
			AlertID: correlated.ID,
			Score:   m.result.Score,
		})
		incoming.Matches = append(incoming.Matches, MatchRef{
			AlertID: m.candidate.Alert.ID,
			Score:   m.result.Score,
		})
		metrics.AlertsCorrelatedTotal.Inc()
	}

	e.logger.Info("correlated alert created",
		"alert_id", correlated.ID,
		"primary_alert_id", alert.ID,
		"matches", len(matches),
		"severity", correlated.Severity,
	)
	return correlated
}

// buildCorrelatedAlert synthesizes the cluster alert for the primary alert
// and its matches.
func (e *Engine) buildCorrelatedAlert(primary *domain.Alert, matches []match, now time.Time) *domain.Alert {
	severity := primary.Severity
	highConfidence := 0
	tags := map[string]struct{}{}
	for _, tag := range primary.Tags {
		tags[tag] = struct{}{}
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Primary: %s [%s]", primary.Title, primary.Severity))
	for _, m := range matches {
		severity = domain.MaxSeverity(severity, m.candidate.Alert.Severity)
		if m.result.Confidence > 0.8 {
			highConfidence++
		}
		for _, tag := range m.candidate.Alert.Tags {
			tags[tag] = struct{}{}
		}
		lines = append(lines, fmt.Sprintf("- %s (score %.2f: %s)",
			m.candidate.Alert.Title, m.result.Score, m.result.Reasons()))
	}
	if highConfidence >= 2 {
		severity = severity.Escalate()
	}

	tagList := make([]string, 0, len(tags))
	for tag := range tags {
		tagList = append(tagList, tag)
	}
	sort.Strings(tagList)

	return &domain.Alert{
		ID:             uuid.New().String(),
		OrganizationID: primary.OrganizationID,
		ServerID:       primary.ServerID,
		Title:          fmt.Sprintf("Correlated incident: %d related alerts", len(matches)+1),
		Description:    strings.Join(lines, "\n"),
		Severity:       severity,
		Status:         domain.AlertStatusOpen,
		Tags:           tagList,
		Metadata: domain.AlertMetadata{
			CorrelationCount: len(matches),
		},
		Type:                 domain.AlertTypeCorrelated,
		PrimaryAlertID:       primary.ID,
		NotificationChannels: primary.NotificationChannels,
		CreatedAt:            now,
	}
}

// groupsFor resolves a server's group memberships. A lookup failure degrades
// to no groups so correlation proceeds without the group boost.
func (e *Engine) groupsFor(ctx context.Context, serverID string) []string {
	srv, err := e.servers.GetByID(ctx, serverID)
	if err != nil {
		if err != domain.ErrServerNotFound {
			e.logger.Warn("server group lookup failed, skipping group boost",
				"server_id", serverID,
				"error", err,
			)
		}
		return nil
	}
	return srv.Groups
}

// sharesGroup reports whether the other server belongs to any of the groups.
func (e *Engine) sharesGroup(ctx context.Context, groups []string, otherServerID string) bool {
	if len(groups) == 0 {
		return false
	}
	other := e.groupsFor(ctx, otherServerID)
	for _, g := range other {
		for _, mine := range groups {
			if g == mine {
				return true
			}
		}
	}
	return false
}
