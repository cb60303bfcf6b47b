package database

import (
	"fmt"
	"time"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/config"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// BuildDSN builds a PostgreSQL DSN.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig returns the default pool settings.
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600,
		ConnMaxIdleTime: 600,
	}
}

// Connect opens the database and configures the connection pool.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry connects with exponential backoff between attempts.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the database schema.
func Migrate(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// SQLite has no jsonb type, create its tables by hand.
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.UserProfile{},
			&model.WorkOrder{},
			&model.TimeEntry{},
			&model.Assignment{},
			&model.Attachment{},
			&model.StatusHistory{},
			&model.Notification{},
			&model.AuditLog{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables creates the schema for SQLite (TEXT instead of jsonb).
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_profiles (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL,
			approved BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create user_profiles table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS work_orders (
			id VARCHAR(64) PRIMARY KEY,
			reference VARCHAR(32) NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			status VARCHAR(32) NOT NULL,
			priority VARCHAR(16) NOT NULL,
			service_type VARCHAR(64),
			scheduled_date DATETIME,
			notes TEXT,
			total_hours REAL NOT NULL DEFAULT 0,
			client_id VARCHAR(64) NOT NULL,
			created_by VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create work_orders table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS time_entries (
			id VARCHAR(64) PRIMARY KEY,
			work_order_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			duration_hours REAL,
			note TEXT,
			pause_reason VARCHAR(32),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create time_entries table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS assignments (
			id VARCHAR(64) PRIMARY KEY,
			work_order_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			assigned_by VARCHAR(64),
			assigned_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create assignments table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS attachments (
			id VARCHAR(64) PRIMARY KEY,
			work_order_id VARCHAR(64) NOT NULL,
			file_name VARCHAR(255) NOT NULL,
			storage_path VARCHAR(512) NOT NULL,
			content_type VARCHAR(128),
			size INTEGER,
			kind VARCHAR(32) NOT NULL DEFAULT 'user_upload',
			uploaded_by VARCHAR(64),
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create attachments table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS status_history (
			id VARCHAR(64) PRIMARY KEY,
			work_order_id VARCHAR(64) NOT NULL,
			from_status VARCHAR(32),
			to_status VARCHAR(32) NOT NULL,
			reason TEXT,
			operator VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create status_history table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			type VARCHAR(32) NOT NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT,
			data TEXT,
			read BOOLEAN NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			retry_count INTEGER DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes creates the database indexes.
func CreateIndexes(db *gorm.DB) error {
	// work_orders
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_reference ON work_orders(reference)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_reference: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_status ON work_orders(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_client ON work_orders(client_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_client: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_orders_created_at ON work_orders(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_orders_created_at: %w", err)
	}

	// time_entries: at most one open entry per (order, worker), enforced
	// by a partial unique index (supported by both postgres and sqlite).
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_open_unique ON time_entries(work_order_id, user_id) WHERE end_time IS NULL").Error; err != nil {
		return fmt.Errorf("failed to create idx_entries_open_unique: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_entries_order ON time_entries(work_order_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_entries_order: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_entries_user ON time_entries(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_entries_user: %w", err)
	}

	// assignments
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_order_user ON assignments(work_order_id, user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_assignments_order_user: %w", err)
	}

	// attachments
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_attachments_order ON attachments(work_order_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_attachments_order: %w", err)
	}

	// status_history
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_order ON status_history(work_order_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_order: %w", err)
	}

	// notifications
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_notifications_user: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_notifications_status: %w", err)
	}

	// audit_logs
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user: %w", err)
	}

	return nil
}
