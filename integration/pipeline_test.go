package integration

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"vigil-go/internal/clock"
	"vigil-go/internal/config"
	"vigil-go/internal/domain"
	"vigil-go/internal/ingest"
	"vigil-go/internal/notification"
	"vigil-go/internal/processor"
	memoryqueue "vigil-go/internal/queue/memory"
	memorystor "vigil-go/internal/store/memory"
)

// pipeline wires the full in-memory stack: ingest service, queue, processor,
// and repositories. Samples flow through the real evaluation path.
type pipeline struct {
	clock     *clock.Fake
	ingest    *ingest.Service
	ruleRepo  *memorystor.RuleRepository
	alertRepo *memorystor.AlertRepository
	servers   *memorystor.ServerRepository
	cancel    context.CancelFunc
	done      chan struct{}
}

func startPipeline() *pipeline {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	clk := clock.NewFake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	ruleRepo := memorystor.NewRuleRepository()
	alertRepo := memorystor.NewAlertRepository()
	maintenanceRepo := memorystor.NewMaintenanceWindowRepository()
	serverRepo := memorystor.NewServerRepository()
	counter := memorystor.NewRecentAlertCounter(2 * time.Hour)
	memQueue := memoryqueue.NewQueue(100)

	proc := processor.NewService(
		memQueue,
		ruleRepo,
		alertRepo,
		maintenanceRepo,
		serverRepo,
		counter,
		notification.NewStubNotifier(logger),
		config.Default().Engine,
		clk,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = proc.Start(ctx)
	}()

	return &pipeline{
		clock:     clk,
		ingest:    ingest.NewService(memQueue, logger),
		ruleRepo:  ruleRepo,
		alertRepo: alertRepo,
		servers:   serverRepo,
		cancel:    cancel,
		done:      done,
	}
}

func (p *pipeline) stop() {
	p.cancel()
	Eventually(p.done, "2s").Should(BeClosed())
}

func (p *pipeline) sendSample(server, metric string, value float64) {
	err := p.ingest.IngestSamples(context.Background(), []domain.MetricSample{{
		ServerID:       server,
		OrganizationID: "org-1",
		MetricName:     metric,
		Value:          domain.NumberValue(value),
		Timestamp:      p.clock.Now(),
	}})
	Expect(err).NotTo(HaveOccurred())
}

func (p *pipeline) listAlerts(filter domain.AlertFilter) []*domain.Alert {
	filter.OrganizationID = "org-1"
	alerts, err := p.alertRepo.List(context.Background(), filter)
	Expect(err).NotTo(HaveOccurred())
	return alerts
}

func (p *pipeline) seedRule(id, metric string, threshold float64) {
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
	Expect(p.ruleRepo.Create(context.Background(), rule)).To(Succeed())
}

var _ = Describe("Sample Evaluation Pipeline", func() {
	var p *pipeline

	BeforeEach(func() {
		p = startPipeline()
	})

	AfterEach(func() {
		p.stop()
	})

	Context("when a threshold rule is configured", func() {
		It("fires an alert only after the breach holds for the configured duration", func() {
			p.seedRule("rule-cpu", "cpu_usage", 90)

			// First breaching sample starts the breach window.
			p.sendSample("srv-1", "cpu_usage", 95)

			// The condition has not held long enough yet.
			Consistently(func() []*domain.Alert {
				return p.listAlerts(domain.AlertFilter{})
			}, "300ms").Should(BeEmpty())

			// After the breach duration elapses a second breaching sample fires.
			p.clock.Advance(300 * time.Second)
			p.sendSample("srv-1", "cpu_usage", 97)

			Eventually(func() []*domain.Alert {
				return p.listAlerts(domain.AlertFilter{})
			}, "2s").Should(HaveLen(1))

			alerts := p.listAlerts(domain.AlertFilter{})
			Expect(alerts[0].Type).To(Equal(domain.AlertTypeSingle))
			Expect(alerts[0].Status).To(Equal(domain.AlertStatusOpen))
			Expect(alerts[0].Title).To(Equal("cpu_usage > 90 on srv-1"))
			Expect(alerts[0].Metadata.BreachDurationSeconds).To(Equal(300))
		})

		It("does not fire when the metric recovers before the duration elapses", func() {
			p.seedRule("rule-cpu", "cpu_usage", 90)

			p.sendSample("srv-1", "cpu_usage", 95)
			p.clock.Advance(100 * time.Second)
			p.sendSample("srv-1", "cpu_usage", 50)
			p.clock.Advance(300 * time.Second)
			p.sendSample("srv-1", "cpu_usage", 95)

			Consistently(func() []*domain.Alert {
				return p.listAlerts(domain.AlertFilter{})
			}, "300ms").Should(BeEmpty())
		})
	})

	Context("when related breaches occur on the same server", func() {
		It("emits a correlated alert instead of a second single alert", func() {
			p.seedRule("rule-cpu", "cpu_usage", 90)
			p.seedRule("rule-mem", "memory_usage", 85)

			p.sendSample("srv-1", "cpu_usage", 95)
			p.sendSample("srv-1", "memory_usage", 92)
			p.clock.Advance(300 * time.Second)
			p.sendSample("srv-1", "cpu_usage", 95)
			p.sendSample("srv-1", "memory_usage", 92)

			Eventually(func() []*domain.Alert {
				return p.listAlerts(domain.AlertFilter{Type: domain.AlertTypeCorrelated})
			}, "2s").Should(HaveLen(1))

			correlated := p.listAlerts(domain.AlertFilter{Type: domain.AlertTypeCorrelated})
			Expect(correlated[0].Metadata.CorrelationCount).To(Equal(1))
			Expect(correlated[0].Severity).To(Equal(domain.SeverityHigh))
		})
	})
})
