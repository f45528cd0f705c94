package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"vigil-go/internal/domain"
)

// AlertRepository implements store.AlertRepository using PostgreSQL.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new PostgreSQL-backed alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `
	id, organization_id, server_id, rule_id, title, description, severity,
	status, metric_name, metric_value, threshold, tags, metadata, type,
	primary_alert_id, notification_channels, created_at
`

// Create stores a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	metricValue, err := json.Marshal(alert.MetricValue)
	if err != nil {
		return fmt.Errorf("failed to encode metric value: %w", err)
	}
	threshold, err := json.Marshal(alert.Threshold)
	if err != nil {
		return fmt.Errorf("failed to encode threshold: %w", err)
	}
	tags, err := json.Marshal(alert.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	metadata, err := json.Marshal(alert.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	channels, err := json.Marshal(alert.NotificationChannels)
	if err != nil {
		return fmt.Errorf("failed to encode notification channels: %w", err)
	}

	_, err = r.db.pool.Exec(ctx, query,
		alert.ID,
		alert.OrganizationID,
		alert.ServerID,
		nullableString(alert.RuleID),
		alert.Title,
		alert.Description,
		alert.Severity,
		alert.Status,
		nullableString(alert.MetricName),
		metricValue,
		threshold,
		tags,
		metadata,
		alert.Type,
		nullableString(alert.PrimaryAlertID),
		channels,
		alert.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	alert, err := scanAlert(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return alert, nil
}

// List retrieves alerts matching the filter criteria, newest first.
func (r *AlertRepository) List(ctx context.Context, filter domain.AlertFilter) ([]*domain.Alert, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}

	if filter.OrganizationID != "" {
		addCondition("organization_id", filter.OrganizationID)
	}
	if filter.ServerID != "" {
		addCondition("server_id", filter.ServerID)
	}
	if filter.RuleID != "" {
		addCondition("rule_id", filter.RuleID)
	}
	if filter.Status != "" {
		addCondition("status", filter.Status)
	}
	if filter.Type != "" {
		addCondition("type", filter.Type)
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// scanAlert scans a single row into an Alert.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		alert          domain.Alert
		ruleID         *string
		metricName     *string
		primaryAlertID *string
		metricValue    []byte
		threshold      []byte
		tags           []byte
		metadata       []byte
		channels       []byte
	)

	err := row.Scan(
		&alert.ID,
		&alert.OrganizationID,
		&alert.ServerID,
		&ruleID,
		&alert.Title,
		&alert.Description,
		&alert.Severity,
		&alert.Status,
		&metricName,
		&metricValue,
		&threshold,
		&tags,
		&metadata,
		&alert.Type,
		&primaryAlertID,
		&channels,
		&alert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ruleID != nil {
		alert.RuleID = *ruleID
	}
	if metricName != nil {
		alert.MetricName = *metricName
	}
	if primaryAlertID != nil {
		alert.PrimaryAlertID = *primaryAlertID
	}
	for _, field := range []struct {
		data []byte
		dst  any
	}{
		{metricValue, &alert.MetricValue},
		{threshold, &alert.Threshold},
		{tags, &alert.Tags},
		{metadata, &alert.Metadata},
		{channels, &alert.NotificationChannels},
	} {
		if len(field.data) == 0 {
			continue
		}
		if err := json.Unmarshal(field.data, field.dst); err != nil {
			return nil, fmt.Errorf("failed to decode alert field: %w", err)
		}
	}

	return &alert, nil
}
