package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"vigil-go/internal/clock"
	"vigil-go/internal/config"
	"vigil-go/internal/domain"
	"vigil-go/internal/queue"
	queuemem "vigil-go/internal/queue/memory"
	storemem "vigil-go/internal/store/memory"
)

// recordingNotifier captures notified alerts for assertions.
type recordingNotifier struct {
	alerts []*domain.Alert
}

func (n *recordingNotifier) NotifyAlert(ctx context.Context, alert *domain.Alert) {
	n.alerts = append(n.alerts, alert)
}

type testEnv struct {
	service   *Service
	ruleRepo  *storemem.RuleRepository
	alertRepo *storemem.AlertRepository
	servers   *storemem.ServerRepository
	notifier  *recordingNotifier
	clock     *clock.Fake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	clk := clock.NewFake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	ruleRepo := storemem.NewRuleRepository()
	alertRepo := storemem.NewAlertRepository()
	maintenanceRepo := storemem.NewMaintenanceWindowRepository()
	serverRepo := storemem.NewServerRepository()
	counter := storemem.NewRecentAlertCounter(2 * time.Hour)
	notifier := &recordingNotifier{}

	cfg := config.Default().Engine

	service := NewService(
		queuemem.NewQueue(100),
		ruleRepo,
		alertRepo,
		maintenanceRepo,
		serverRepo,
		counter,
		notifier,
		cfg,
		clk,
		logger,
	)

	return &testEnv{
		service:   service,
		ruleRepo:  ruleRepo,
		alertRepo: alertRepo,
		servers:   serverRepo,
		notifier:  notifier,
		clock:     clk,
	}
}

func (env *testEnv) deliverBatch(t *testing.T, org string, samples ...domain.MetricSample) {
	t.Helper()

	batch := domain.SampleBatch{
		OrganizationID: org,
		Samples:        samples,
		PartitionKey:   org,
		ReceivedAt:     env.clock.Now(),
	}
	payload, err := json.Marshal(batch)
	if err != nil {
		t.Fatalf("marshal batch: %v", err)
	}
	if err := env.service.handleMessage(context.Background(), &queue.Message{Value: payload}); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
}

func (env *testEnv) sample(server, metric string, value float64) domain.MetricSample {
	return domain.MetricSample{
		ServerID:       server,
		OrganizationID: "org-1",
		MetricName:     metric,
		Value:          domain.NumberValue(value),
		Timestamp:      env.clock.Now(),
	}
}

func seedRule(t *testing.T, env *testEnv, id, metric string, threshold float64) {
	t.Helper()

	rule := &domain.Rule{
		ID:                       id,
		OrganizationID:           "org-1",
		Name:                     "High " + metric,
		MetricName:               metric,
		Operator:                 domain.OperatorGT,
		Threshold:                domain.NumberThreshold(threshold),
		ThresholdDurationSeconds: 300,
		Severity:                 domain.SeverityHigh,
		Enabled:                  true,
	}
	if err := env.ruleRepo.Create(context.Background(), rule); err != nil {
		t.Fatalf("Create rule: %v", err)
	}
}

func TestHandleMessagePersistsAndNotifiesAlert(t *testing.T) {
	env := newTestEnv(t)
	seedRule(t, env, "rule-1", "cpu_usage", 90)

	env.deliverBatch(t, "org-1", env.sample("s1", "cpu_usage", 95))
	env.clock.Advance(300 * time.Second)
	env.deliverBatch(t, "org-1", env.sample("s1", "cpu_usage", 95))

	alerts, err := env.alertRepo.List(context.Background(), domain.AlertFilter{OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 persisted alert, got %d", len(alerts))
	}
	if alerts[0].Type != domain.AlertTypeSingle {
		t.Errorf("expected single alert, got %s", alerts[0].Type)
	}
	if len(env.notifier.alerts) != 1 {
		t.Errorf("expected 1 notification, got %d", len(env.notifier.alerts))
	}
}

func TestHandleMessagePersistsCorrelatedAlert(t *testing.T) {
	env := newTestEnv(t)
	seedRule(t, env, "rule-cpu", "cpu_usage", 90)
	seedRule(t, env, "rule-mem", "memory_usage", 85)

	// Both rules breach through the same sustained window on the same
	// server; their alerts fire in one batch and correlate immediately.
	env.deliverBatch(t, "org-1",
		env.sample("s1", "cpu_usage", 95),
		env.sample("s1", "memory_usage", 92),
	)
	env.clock.Advance(300 * time.Second)
	env.deliverBatch(t, "org-1",
		env.sample("s1", "cpu_usage", 95),
		env.sample("s1", "memory_usage", 92),
	)

	alerts, err := env.alertRepo.List(context.Background(), domain.AlertFilter{
		OrganizationID: "org-1",
		Type:           domain.AlertTypeCorrelated,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 correlated alert, got %d", len(alerts))
	}
	if alerts[0].Metadata.CorrelationCount != 1 {
		t.Errorf("expected correlation count 1, got %d", alerts[0].Metadata.CorrelationCount)
	}
}

func TestHandleMessageSkipsMalformedPayload(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.handleMessage(context.Background(), &queue.Message{Value: []byte("{not json")})
	if err != nil {
		t.Errorf("malformed payload should be dropped, got error %v", err)
	}
}

func TestApplyRuleChangesReachLiveShard(t *testing.T) {
	env := newTestEnv(t)
	seedRule(t, env, "rule-1", "cpu_usage", 90)

	// First batch creates the shard.
	env.deliverBatch(t, "org-1", env.sample("s1", "cpu_usage", 95))

	// Removing the rule stops the pending breach from ever firing.
	env.service.ApplyRuleDelete("org-1", "rule-1")
	env.clock.Advance(300 * time.Second)
	env.deliverBatch(t, "org-1", env.sample("s1", "cpu_usage", 95))

	alerts, err := env.alertRepo.List(context.Background(), domain.AlertFilter{OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts after rule removal, got %d", len(alerts))
	}

	// A freshly added rule takes effect on the next batch.
	newRule := &domain.Rule{
		ID:                       "rule-2",
		OrganizationID:           "org-1",
		Name:                     "High memory",
		MetricName:               "memory_usage",
		Operator:                 domain.OperatorGT,
		Threshold:                domain.NumberThreshold(80),
		ThresholdDurationSeconds: 60,
		Severity:                 domain.SeverityMedium,
		Enabled:                  true,
	}
	if err := env.service.ApplyRuleCreate(newRule); err != nil {
		t.Fatalf("ApplyRuleCreate: %v", err)
	}

	env.deliverBatch(t, "org-1", env.sample("s1", "memory_usage", 90))
	env.clock.Advance(60 * time.Second)
	env.deliverBatch(t, "org-1", env.sample("s1", "memory_usage", 90))

	alerts, err = env.alertRepo.List(context.Background(), domain.AlertFilter{RuleID: "rule-2"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert from the new rule, got %d", len(alerts))
	}
}
