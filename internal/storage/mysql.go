package storage

import (
	"database/sql"
	"fmt"

	"payment-reconciler/internal/config"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating reconciliations table if not exists")

	query := `
    CREATE TABLE IF NOT EXISTS reconciliations (
        record_id VARCHAR(64) PRIMARY KEY,
        resource_id VARCHAR(64) NOT NULL,
        flow VARCHAR(16) NOT NULL,
        outcome VARCHAR(16) NOT NULL,
        action_count INT NOT NULL DEFAULT 0,
        applied_version INT NOT NULL DEFAULT 0,
        error TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        INDEX idx_resource_id (resource_id),
        INDEX idx_outcome (outcome),
        INDEX idx_created_at (created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
    `

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create reconciliations table: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", "Reconciliations table ready")
	return nil
}

func (s *MySQLStore) SaveRecord(record *models.ReconciliationRecord) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving reconciliation record %s", record.RecordID))

	query := `
    INSERT INTO reconciliations (
        record_id, resource_id, flow, outcome, action_count, applied_version, error, created_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err := s.db.Exec(query,
		record.RecordID, record.ResourceID, record.Flow, record.Outcome,
		record.ActionCount, record.AppliedVersion, record.Error, record.CreatedAt,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save record %s: %s", record.RecordID, err.Error()))
		return fmt.Errorf("failed to save record: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Record %s saved successfully", record.RecordID))
	return nil
}

func (s *MySQLStore) GetRecord(recordID string) (*models.ReconciliationRecord, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Fetching record %s", recordID))

	query := `
    SELECT record_id, resource_id, flow, outcome, action_count, applied_version, error, created_at
    FROM reconciliations WHERE record_id = ?
    `

	record := &models.ReconciliationRecord{}
	err := s.db.QueryRow(query, recordID).Scan(
		&record.RecordID, &record.ResourceID, &record.Flow, &record.Outcome,
		&record.ActionCount, &record.AppliedVersion, &record.Error, &record.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Record %s not found", recordID))
			return nil, ErrRecordNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get record %s: %s", recordID, err.Error()))
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return record, nil
}

func (s *MySQLStore) ListRecordsByResource(resourceID string, limit, offset int) ([]*models.ReconciliationRecord, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Listing records for resource %s (limit: %d, offset: %d)", resourceID, limit, offset))

	query := `
    SELECT record_id, resource_id, flow, outcome, action_count, applied_version, error, created_at
    FROM reconciliations
    WHERE resource_id = ?
    ORDER BY created_at DESC
    LIMIT ? OFFSET ?
    `

	rows, err := s.db.Query(query, resourceID, limit, offset)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list records: %s", err.Error()))
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*models.ReconciliationRecord
	for rows.Next() {
		record := &models.ReconciliationRecord{}
		err := rows.Scan(
			&record.RecordID, &record.ResourceID, &record.Flow, &record.Outcome,
			&record.ActionCount, &record.AppliedVersion, &record.Error, &record.CreatedAt,
		)
		if err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to scan record row: %s", err.Error()))
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Row iteration error: %s", err.Error()))
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Listed %d records for resource %s", len(records), resourceID))
	return records, nil
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}
