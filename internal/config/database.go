package config

import (
	"fmt"

	"github.com/dailit/dailit-server/internal/utils"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config, logger *utils.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := CreateTables(db, logger); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS admins (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS managers (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS resellers (
		id VARCHAR(36) PRIMARY KEY,
		manager_id VARCHAR(36) NOT NULL REFERENCES managers(id),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscription_users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		subscription_start_date DATE NOT NULL,
		renewal_date DATE,
		expiry_date DATE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		manager_id VARCHAR(36) REFERENCES managers(id),
		reseller_id VARCHAR(36) REFERENCES resellers(id),
		parent_account_id VARCHAR(36) REFERENCES subscription_users(id),
		voip_number VARCHAR(50),
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		deleted_at TIMESTAMP,
		CHECK (expiry_date >= subscription_start_date)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL REFERENCES subscription_users(id),
		amount NUMERIC(12,2) NOT NULL,
		payment_date DATE NOT NULL,
		payment_method VARCHAR(20) NOT NULL,
		collected_by_id VARCHAR(36) NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id VARCHAR(36) PRIMARY KEY,
		manager_id VARCHAR(36) NOT NULL REFERENCES managers(id),
		reseller_id VARCHAR(36) REFERENCES resellers(id),
		amount NUMERIC(12,2) NOT NULL,
		submission_date DATE NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		company VARCHAR(255) NOT NULL DEFAULT '',
		service_interest VARCHAR(255) NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		source VARCHAR(100) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(50) NOT NULL DEFAULT '',
		subject VARCHAR(255) NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_payments_collected_by ON payments(collected_by_id)",
	"CREATE INDEX IF NOT EXISTS idx_submissions_manager_id ON submissions(manager_id)",
	"CREATE INDEX IF NOT EXISTS idx_subscription_users_parent ON subscription_users(parent_account_id)",
	"CREATE INDEX IF NOT EXISTS idx_subscription_users_expiry ON subscription_users(expiry_date) WHERE deleted_at IS NULL",
	"CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)",
}

// CreateTables creates the necessary tables in the database
func CreateTables(db *sqlx.DB, logger *utils.Logger) error {
	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return err
		}
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			// Don't return error here, indexes are not critical
			logger.Error("Failed to create index: %v", err)
		}
	}

	return nil
}
