// Package ingest provides the metric sample ingestion service.
// It validates incoming samples, groups them per tenant, computes partition
// keys, and publishes batches to the message queue for asynchronous
// evaluation.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"vigil-go/internal/domain"
	"vigil-go/internal/metrics"
	"vigil-go/internal/queue"
)

// Service handles sample ingestion logic.
// It is responsible for:
// - Validating metric samples
// - Grouping samples by organization
// - Computing partition keys for ordered processing
// - Publishing batches to the message queue
type Service struct {
	producer queue.Producer
	logger   *slog.Logger
}

// NewService creates a new ingest service.
func NewService(producer queue.Producer, logger *slog.Logger) *Service {
	return &Service{
		producer: producer,
		logger:   logger,
	}
}

// Errors returned by the ingest service.
var (
	ErrNoSamples     = errors.New("request contains no samples")
	ErrPublishFailed = errors.New("failed to publish samples to queue")
)

// IngestSamples validates and publishes a set of metric samples.
// Samples are grouped by organization; each group becomes one queue message
// keyed by the organization's partition key, which preserves per-tenant
// ordering for breach-duration hysteresis.
func (s *Service) IngestSamples(ctx context.Context, samples []domain.MetricSample) error {
	ingestStart := time.Now()

	if len(samples) == 0 {
		return ErrNoSamples
	}

	byOrg := make(map[string][]domain.MetricSample)
	for i := range samples {
		sample := &samples[i]
		if err := sample.Validate(); err != nil {
			return fmt.Errorf("invalid sample for metric %q: %w", sample.MetricName, err)
		}
		if sample.Timestamp.IsZero() {
			sample.Timestamp = time.Now().UTC()
		}
		metrics.SamplesReceivedTotal.WithLabelValues(sample.OrganizationID).Inc()
		byOrg[sample.OrganizationID] = append(byOrg[sample.OrganizationID], *sample)
	}

	// Deterministic publish order keeps multi-tenant requests reproducible.
	orgIDs := make([]string, 0, len(byOrg))
	for orgID := range byOrg {
		orgIDs = append(orgIDs, orgID)
	}
	sort.Strings(orgIDs)

	for _, orgID := range orgIDs {
		if err := s.publishBatch(ctx, orgID, byOrg[orgID]); err != nil {
			return err
		}
	}

	metrics.SampleIngestLatency.Observe(time.Since(ingestStart).Seconds())
	return nil
}

// publishBatch wraps one organization's samples in a batch envelope and
// publishes it.
func (s *Service) publishBatch(ctx context.Context, orgID string, samples []domain.MetricSample) error {
	batch := &domain.SampleBatch{
		OrganizationID: orgID,
		Samples:        samples,
		PartitionKey:   computePartitionKey(orgID),
		ReceivedAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		s.logger.Error("failed to serialize sample batch", "error", err)
		return fmt.Errorf("failed to serialize sample batch: %w", err)
	}

	msg := &queue.Message{
		Key:   []byte(batch.PartitionKey),
		Value: payload,
		Headers: map[string]string{
			"organization_id": orgID,
		},
	}

	publishStart := time.Now()
	if err := s.producer.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish sample batch",
			"error", err,
			"organization_id", orgID,
			"samples", len(samples),
		)
		return ErrPublishFailed
	}
	metrics.QueuePublishLatency.Observe(time.Since(publishStart).Seconds())

	metrics.SamplesPublishedTotal.WithLabelValues(orgID).Add(float64(len(samples)))

	s.logger.Debug("sample batch published to queue",
		"organization_id", orgID,
		"partition_key", batch.PartitionKey,
		"samples", len(samples),
	)

	return nil
}

// computePartitionKey generates a deterministic partition key for a tenant.
// Batches for the same organization always land on the same partition, so
// one consumer sees the tenant's samples in order.
func computePartitionKey(organizationID string) string {
	hash := sha256.Sum256([]byte(organizationID))
	return hex.EncodeToString(hash[:8])
}
