package correlation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"vigil-go/internal/clock"
	"vigil-go/internal/domain"
	"vigil-go/internal/store/memory"
)

type testEnv struct {
	engine     *Engine
	candidates *Store
	servers    *memory.ServerRepository
	clock      *clock.Fake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	candidates := NewStore()
	servers := memory.NewServerRepository()

	return &testEnv{
		engine:     NewEngine(candidates, servers, 0, 0, clk, logger),
		candidates: candidates,
		servers:    servers,
		clock:      clk,
	}
}

func (env *testEnv) alert(id, serverID, metric string, severity domain.Severity) *domain.Alert {
	return &domain.Alert{
		ID:             id,
		OrganizationID: "org-1",
		ServerID:       serverID,
		RuleID:         "rule-" + metric,
		Title:          metric + " breach on " + serverID,
		Severity:       severity,
		Status:         domain.AlertStatusOpen,
		MetricName:     metric,
		Type:           domain.AlertTypeSingle,
		CreatedAt:      env.clock.Now(),
	}
}

func TestProcessPassesThroughUncorrelatedAlert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.alert("a1", "s1", "cpu_usage", domain.SeverityHigh)
	if got := env.engine.Process(ctx, first); got != first {
		t.Fatal("expected first alert to pass through unchanged")
	}

	// An unrelated alert on a different server scores below the threshold.
	env.clock.Advance(10 * time.Second)
	other := env.alert("a2", "s2", "queue_depth", domain.SeverityLow)
	if got := env.engine.Process(ctx, other); got != other {
		t.Fatalf("expected unrelated alert to pass through, got %+v", got)
	}
	if env.candidates.Len() != 2 {
		t.Errorf("expected both alerts retained as candidates, got %d", env.candidates.Len())
	}
}

func TestProcessCorrelatesRelatedAlerts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cpu := env.alert("a1", "s1", "cpu_usage", domain.SeverityHigh)
	env.engine.Process(ctx, cpu)

	env.clock.Advance(10 * time.Second)
	mem := env.alert("a2", "s1", "memory_usage", domain.SeverityHigh)
	got := env.engine.Process(ctx, mem)

	if got == mem {
		t.Fatal("expected a correlated alert, got the original")
	}
	if got.Type != domain.AlertTypeCorrelated {
		t.Fatalf("expected correlated type, got %s", got.Type)
	}
	if got.PrimaryAlertID != "a2" {
		t.Errorf("expected primary alert a2, got %s", got.PrimaryAlertID)
	}
	if got.Metadata.CorrelationCount != 1 {
		t.Errorf("expected correlation count 1, got %d", got.Metadata.CorrelationCount)
	}
	if got.Severity != domain.SeverityHigh {
		t.Errorf("expected severity high without escalation, got %s", got.Severity)
	}
	if !strings.Contains(got.Description, "same server") {
		t.Errorf("expected description to cite contributing reasons, got %q", got.Description)
	}

	// The matched candidate carries a back-reference to the new alert.
	var matched *Candidate
	for _, c := range env.candidates.All() {
		if c.Alert.ID == "a1" {
			matched = c
		}
	}
	if matched == nil {
		t.Fatal("expected a1 to remain a candidate")
	}
	if matched.Alert.Metadata.CorrelatedWith != got.ID {
		t.Errorf("expected back-reference to %s, got %q", got.ID, matched.Alert.Metadata.CorrelatedWith)
	}
	if len(matched.Matches) != 1 || matched.Matches[0].AlertID != got.ID {
		t.Errorf("expected match record on candidate, got %+v", matched.Matches)
	}
}

func TestProcessEscalatesSeverityOnHighConfidenceCluster(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// All three servers... one server in one group so every pair gets the
	// same-server, group, metric-pair, severity, and time confidence.
	if err := env.servers.Create(ctx, &domain.Server{
		ID:             "s1",
		OrganizationID: "org-1",
		Name:           "web-01",
		Groups:         []string{"web-tier"},
	}); err != nil {
		t.Fatalf("Create server: %v", err)
	}

	env.engine.Process(ctx, env.alert("a1", "s1", "memory_usage", domain.SeverityHigh))
	env.clock.Advance(5 * time.Second)
	env.engine.Process(ctx, env.alert("a2", "s1", "response_time", domain.SeverityHigh))
	env.clock.Advance(5 * time.Second)

	got := env.engine.Process(ctx, env.alert("a3", "s1", "cpu_usage", domain.SeverityHigh))
	if got.Type != domain.AlertTypeCorrelated {
		t.Fatalf("expected correlated alert, got %s", got.Type)
	}
	if got.Metadata.CorrelationCount != 2 {
		t.Fatalf("expected 2 matches, got %d", got.Metadata.CorrelationCount)
	}
	if got.Severity != domain.SeverityCritical {
		t.Errorf("expected severity escalated to critical, got %s", got.Severity)
	}
}

func TestProcessEvictsExpiredCandidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.engine.Process(ctx, env.alert("a1", "s1", "cpu_usage", domain.SeverityHigh))

	// Past the correlation window the first alert is no longer eligible.
	env.clock.Advance(6 * time.Minute)
	mem := env.alert("a2", "s1", "memory_usage", domain.SeverityHigh)
	if got := env.engine.Process(ctx, mem); got != mem {
		t.Fatal("expected no correlation across the window boundary")
	}
	if env.candidates.Len() != 1 {
		t.Errorf("expected expired candidate evicted, got %d candidates", env.candidates.Len())
	}
}

func TestProcessMatchesAgainstCorrelatedCandidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.engine.Process(ctx, env.alert("a1", "s1", "cpu_usage", domain.SeverityHigh))
	env.clock.Advance(10 * time.Second)
	first := env.engine.Process(ctx, env.alert("a2", "s1", "memory_usage", domain.SeverityHigh))
	if first.Type != domain.AlertTypeCorrelated {
		t.Fatalf("expected first correlation, got %s", first.Type)
	}

	// a1 and a2 stay in the window even though they were absorbed; a third
	// related alert still matches both of them.
	env.clock.Advance(10 * time.Second)
	got := env.engine.Process(ctx, env.alert("a3", "s1", "cpu_usage", domain.SeverityHigh))
	if got.Type != domain.AlertTypeCorrelated {
		t.Fatalf("expected correlated alert, got %s", got.Type)
	}
	if got.Metadata.CorrelationCount != 2 {
		t.Errorf("expected a3 to match both earlier alerts, got %d", got.Metadata.CorrelationCount)
	}
}
