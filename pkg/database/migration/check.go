package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CheckReport is the outcome of a connectivity check
type CheckReport struct {
	Dialect       string
	Version       string
	PingLatency   time.Duration
	QueryLatency  time.Duration
	Tables        int
	MissingTables []string
	Pool          sql.DBStats
}

var errRollback = errors.New("rollback")

// Check verifies that db is reachable, reports its version and which managed
// tables are missing, and makes sure transactions work.
func Check(ctx context.Context, db *gorm.DB) (*CheckReport, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database connection: %w", err)
	}

	report := &CheckReport{Dialect: db.Dialector.Name()}

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	report.PingLatency = time.Since(start)

	versionQuery := "SELECT version()"
	if report.Dialect == "sqlite" {
		versionQuery = "SELECT sqlite_version()"
	}
	if err := db.WithContext(ctx).Raw(versionQuery).Scan(&report.Version).Error; err != nil {
		return nil, fmt.Errorf("failed to get database version: %w", err)
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, model := range Models() {
		report.Tables++
		if !migrator.HasTable(model) {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(model); err != nil {
				return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
			}
			report.MissingTables = append(report.MissingTables, stmt.Schema.Table)
		}
	}

	if err := checkTransaction(ctx, db); err != nil {
		return nil, err
	}

	start = time.Now()
	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return nil, fmt.Errorf("simple query failed: %w", err)
	}
	report.QueryLatency = time.Since(start)
	report.Pool = sqlDB.Stats()

	return report, nil
}

// checkTransaction writes to a temporary table inside a transaction that is
// always rolled back
func checkTransaction(ctx context.Context, db *gorm.DB) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE TEMPORARY TABLE check_transaction (id INTEGER PRIMARY KEY, data TEXT)").Error; err != nil {
			return fmt.Errorf("failed to create temporary table: %w", err)
		}
		if err := tx.Exec("INSERT INTO check_transaction (id, data) VALUES (1, 'check')").Error; err != nil {
			return fmt.Errorf("failed to insert test row: %w", err)
		}
		var count int64
		if err := tx.Raw("SELECT COUNT(*) FROM check_transaction").Scan(&count).Error; err != nil {
			return fmt.Errorf("failed to count test rows: %w", err)
		}
		if count != 1 {
			return fmt.Errorf("unexpected count in transaction: expected 1, got %d", count)
		}
		return errRollback
	})
	if errors.Is(err, errRollback) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("transaction check failed: %w", err)
	}
	return nil
}
