package domain

import "time"

// SampleBatch is the queue envelope for metric samples. The ingest service
// groups incoming samples by organization so each batch rides the tenant's
// partition and is evaluated in order by a single shard worker.
type SampleBatch struct {
	// OrganizationID identifies the tenant the samples belong to.
	OrganizationID string `json:"organization_id"`

	// Samples are the metric samples in receipt order.
	Samples []MetricSample `json:"samples"`

	// PartitionKey routes the batch; derived from the organization ID.
	PartitionKey string `json:"partition_key"`

	// ReceivedAt is when the ingest API accepted the batch.
	ReceivedAt time.Time `json:"received_at"`
}
