package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// RuleRepository implements store.RuleRepository using PostgreSQL.
type RuleRepository struct {
	db *DB
}

// NewRuleRepository creates a new PostgreSQL-backed rule repository.
func NewRuleRepository(db *DB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `
	id, organization_id, server_id, name, metric_name, operator, threshold,
	threshold_duration_seconds, severity, enabled, notification_channels,
	rate_limit_minutes, max_alerts_per_hour, escalation_policy,
	created_at, updated_at
`

// Create stores a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	query := `
		INSERT INTO rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	threshold, err := json.Marshal(rule.Threshold)
	if err != nil {
		return fmt.Errorf("failed to encode threshold: %w", err)
	}
	channels, err := json.Marshal(rule.NotificationChannels)
	if err != nil {
		return fmt.Errorf("failed to encode notification channels: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, query,
		rule.ID,
		rule.OrganizationID,
		nullableString(rule.ServerID),
		rule.Name,
		rule.MetricName,
		rule.Operator,
		threshold,
		rule.ThresholdDurationSeconds,
		rule.Severity,
		rule.Enabled,
		channels,
		rule.Suppression.RateLimitMinutes,
		rule.Suppression.MaxAlertsPerHour,
		nullableString(rule.EscalationPolicy),
		rule.CreatedAt,
		rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	return nil
}

// Update modifies an existing rule.
func (r *RuleRepository) Update(ctx context.Context, rule *domain.Rule) error {
	query := `
		UPDATE rules SET
			server_id = $2,
			name = $3,
			metric_name = $4,
			operator = $5,
			threshold = $6,
			threshold_duration_seconds = $7,
			severity = $8,
			enabled = $9,
			notification_channels = $10,
			rate_limit_minutes = $11,
			max_alerts_per_hour = $12,
			escalation_policy = $13,
			updated_at = $14
		WHERE id = $1
	`

	threshold, err := json.Marshal(rule.Threshold)
	if err != nil {
		return fmt.Errorf("failed to encode threshold: %w", err)
	}
	channels, err := json.Marshal(rule.NotificationChannels)
	if err != nil {
		return fmt.Errorf("failed to encode notification channels: %w", err)
	}

	result, err := r.db.pool.Exec(ctx, query,
		rule.ID,
		nullableString(rule.ServerID),
		rule.Name,
		rule.MetricName,
		rule.Operator,
		threshold,
		rule.ThresholdDurationSeconds,
		rule.Severity,
		rule.Enabled,
		channels,
		rule.Suppression.RateLimitMinutes,
		rule.Suppression.MaxAlertsPerHour,
		nullableString(rule.EscalationPolicy),
		rule.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// Delete removes a rule by ID.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rules WHERE id = $1`

	result, err := r.db.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRuleNotFound
	}

	return nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1`

	rule, err := scanRule(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return rule, nil
}

// ListByOrganization retrieves all rules for a tenant.
func (r *RuleRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE organization_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// List retrieves all rules.
func (r *RuleRepository) List(ctx context.Context) ([]*domain.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules ORDER BY created_at DESC`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]*domain.Rule, error) {
	var rules []*domain.Rule

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// scanRule scans a single row into a Rule.
func scanRule(row pgx.Row) (*domain.Rule, error) {
	var (
		rule             domain.Rule
		serverID         *string
		escalationPolicy *string
		threshold        []byte
		channels         []byte
	)

	err := row.Scan(
		&rule.ID,
		&rule.OrganizationID,
		&serverID,
		&rule.Name,
		&rule.MetricName,
		&rule.Operator,
		&threshold,
		&rule.ThresholdDurationSeconds,
		&rule.Severity,
		&rule.Enabled,
		&channels,
		&rule.Suppression.RateLimitMinutes,
		&rule.Suppression.MaxAlertsPerHour,
		&escalationPolicy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if serverID != nil {
		rule.ServerID = *serverID
	}
	if escalationPolicy != nil {
		rule.EscalationPolicy = *escalationPolicy
	}
	if err := json.Unmarshal(threshold, &rule.Threshold); err != nil {
		return nil, fmt.Errorf("failed to decode threshold: %w", err)
	}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &rule.NotificationChannels); err != nil {
			return nil, fmt.Errorf("failed to decode notification channels: %w", err)
		}
	}

	return &rule, nil
}
