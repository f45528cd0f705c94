// Package postgres provides PostgreSQL-based implementations of the store interfaces.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"vigil-go/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS rules (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL,
			server_id VARCHAR(36),
			name VARCHAR(255) NOT NULL,
			metric_name VARCHAR(100) NOT NULL,
			operator VARCHAR(20) NOT NULL,
			threshold JSONB NOT NULL,
			threshold_duration_seconds INTEGER NOT NULL,
			severity VARCHAR(20) NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			notification_channels JSONB,
			rate_limit_minutes INTEGER NOT NULL DEFAULT 0,
			max_alerts_per_hour INTEGER NOT NULL DEFAULT 0,
			escalation_policy VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_rules_organization ON rules(organization_id);
		CREATE INDEX IF NOT EXISTS idx_rules_metric ON rules(metric_name);

		CREATE TABLE IF NOT EXISTS alerts (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL,
			server_id VARCHAR(36) NOT NULL,
			rule_id VARCHAR(36),
			title TEXT NOT NULL,
			description TEXT,
			severity VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL,
			metric_name VARCHAR(100),
			metric_value JSONB,
			threshold JSONB,
			tags JSONB,
			metadata JSONB,
			type VARCHAR(20) NOT NULL,
			primary_alert_id VARCHAR(36),
			notification_channels JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_organization ON alerts(organization_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_server ON alerts(server_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_rule ON alerts(rule_id);
		CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
		CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(type);

		CREATE TABLE IF NOT EXISTS servers (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			groups JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_servers_organization ON servers(organization_id);

		CREATE TABLE IF NOT EXISTS maintenance_windows (
			id VARCHAR(36) PRIMARY KEY,
			server_id VARCHAR(36) NOT NULL,
			start_time TIMESTAMP WITH TIME ZONE NOT NULL,
			end_time TIMESTAMP WITH TIME ZONE NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_maintenance_server ON maintenance_windows(server_id);
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// nullableString converts an empty string to nil for nullable columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
