// Package processor drives the evaluation pipeline. It consumes sample
// batches from the message queue, routes each batch to its tenant's shard,
// runs rule evaluation and correlation, and hands the resulting alerts to
// persistence and notification.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"vigil-go/internal/clock"
	"vigil-go/internal/config"
	"vigil-go/internal/domain"
	"vigil-go/internal/engine/correlation"
	"vigil-go/internal/engine/rules"
	"vigil-go/internal/metrics"
	"vigil-go/internal/notification"
	"vigil-go/internal/queue"
	"vigil-go/internal/store"
)

// shard holds the per-tenant engine state. All of a tenant's samples arrive
// on one partition, so exactly one consumer goroutine drives a shard's
// engines; only the rule definitions inside rules.Store may be touched from
// other goroutines.
type shard struct {
	ruleStore  *rules.Store
	ruleEngine *rules.Engine
	correlator *correlation.Engine
}

// Service processes sample batches from the queue.
// It is responsible for:
// - Consuming batches and routing them to per-organization shards
// - Lazily creating shards and bulk-loading their rules
// - Running rule evaluation and correlation per batch
// - Persisting emitted alerts and triggering notifications
// - Applying rule changes to live shards
type Service struct {
	consumer    queue.Consumer
	ruleRepo    store.RuleRepository
	alertRepo   store.AlertRepository
	maintenance store.MaintenanceWindowRepository
	servers     store.ServerRepository
	counter     store.RecentAlertCounter
	notifier    notification.Notifier
	engineCfg   config.EngineConfig
	clock       clock.Clock
	logger      *slog.Logger

	mu     sync.RWMutex
	shards map[string]*shard
}

// NewService creates a new processor service.
func NewService(
	consumer queue.Consumer,
	ruleRepo store.RuleRepository,
	alertRepo store.AlertRepository,
	maintenance store.MaintenanceWindowRepository,
	servers store.ServerRepository,
	counter store.RecentAlertCounter,
	notifier notification.Notifier,
	engineCfg config.EngineConfig,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		consumer:    consumer,
		ruleRepo:    ruleRepo,
		alertRepo:   alertRepo,
		maintenance: maintenance,
		servers:     servers,
		counter:     counter,
		notifier:    notifier,
		engineCfg:   engineCfg,
		clock:       clk,
		logger:      logger,
		shards:      make(map[string]*shard),
	}
}

// Start begins consuming sample batches from the queue.
// This is a blocking call that runs until the context is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("starting processor service")
	return s.consumer.Start(ctx, s.handleMessage)
}

// Stop closes the queue consumer, which unblocks Start.
func (s *Service) Stop() error {
	return s.consumer.Close()
}

// handleMessage is the callback for processing each message from the queue.
func (s *Service) handleMessage(ctx context.Context, msg *queue.Message) error {
	var batch domain.SampleBatch
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		s.logger.Error("failed to deserialize sample batch", "error", err)
		// Return nil to avoid reprocessing malformed messages
		return nil
	}

	s.logger.Debug("processing sample batch",
		"organization_id", batch.OrganizationID,
		"samples", len(batch.Samples),
	)

	sh, err := s.shardFor(ctx, batch.OrganizationID)
	if err != nil {
		s.logger.Error("failed to initialize shard",
			"organization_id", batch.OrganizationID,
			"error", err,
		)
		return err
	}

	alerts := sh.ruleEngine.Evaluate(ctx, batch.Samples)
	for _, alert := range alerts {
		final := sh.correlator.Process(ctx, alert)
		if final.IsCorrelated() {
			metrics.AlertsCreatedTotal.WithLabelValues(string(domain.AlertTypeCorrelated)).Inc()
		}

		if err := s.alertRepo.Create(ctx, final); err != nil {
			s.logger.Error("failed to persist alert",
				"alert_id", final.ID,
				"error", err,
			)
			continue
		}

		s.notifier.NotifyAlert(ctx, final)
	}

	metrics.SamplesProcessedTotal.
		WithLabelValues(batch.OrganizationID, "success").
		Add(float64(len(batch.Samples)))

	if !batch.ReceivedAt.IsZero() {
		metrics.SampleIngestLatency.Observe(time.Since(batch.ReceivedAt).Seconds())
	}

	return nil
}

// shardFor returns the shard for an organization, creating it and
// bulk-loading its rules on first use.
func (s *Service) shardFor(ctx context.Context, organizationID string) (*shard, error) {
	s.mu.RLock()
	sh, ok := s.shards[organizationID]
	s.mu.RUnlock()
	if ok {
		return sh, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.shards[organizationID]; ok {
		return sh, nil
	}

	ruleSet, err := s.ruleRepo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	ruleStore := rules.NewStore(s.logger)
	loaded := ruleStore.Load(ruleSet)

	sh = &shard{
		ruleStore:  ruleStore,
		ruleEngine: rules.NewEngine(ruleStore, s.maintenance, s.servers, s.counter, s.clock, s.logger),
		correlator: correlation.NewEngine(
			correlation.NewStore(),
			s.servers,
			s.engineCfg.CorrelationWindow,
			s.engineCfg.CorrelationThreshold,
			s.clock,
			s.logger,
		),
	}
	s.shards[organizationID] = sh

	s.logger.Info("shard initialized",
		"organization_id", organizationID,
		"rules_loaded", loaded,
	)
	return sh, nil
}

// ApplyRuleCreate installs a new rule on the organization's live shard.
// A no-op when the shard has not been created yet; the rule is picked up by
// the bulk load when the tenant's first sample arrives.
func (s *Service) ApplyRuleCreate(rule *domain.Rule) error {
	if sh := s.liveShard(rule.OrganizationID); sh != nil {
		return sh.ruleStore.AddRule(rule)
	}
	return nil
}

// ApplyRuleUpdate replaces a rule on the organization's live shard.
func (s *Service) ApplyRuleUpdate(rule *domain.Rule) error {
	if sh := s.liveShard(rule.OrganizationID); sh != nil {
		return sh.ruleStore.UpdateRule(rule)
	}
	return nil
}

// ApplyRuleDelete removes a rule from the organization's live shard.
func (s *Service) ApplyRuleDelete(organizationID, ruleID string) {
	if sh := s.liveShard(organizationID); sh != nil {
		sh.ruleStore.RemoveRule(ruleID)
	}
}

func (s *Service) liveShard(organizationID string) *shard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shards[organizationID]
}
