package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

// MetadataRepository records one row per processed upload.
type MetadataRepository interface {
	InsertUpload(ctx context.Context, rec domain.UploadRecord) error
	Close() error
}

type metadataRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewMetadataRepository(dsn string, log *zap.Logger) (MetadataRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &metadataRepository{db: db, log: log}, nil
}

// InsertUpload is idempotent under redelivery: the push platform may deliver
// the same notification more than once, so duplicates are absorbed.
func (r *metadataRepository) InsertUpload(ctx context.Context, rec domain.UploadRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (bucket, name, content_type, size_bytes, time_created, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (bucket, name, time_created) DO NOTHING
	`, rec.Bucket, rec.Name, rec.ContentType, rec.SizeBytes, rec.TimeCreated, rec.ReceivedAt)

	if err != nil {
		r.log.Error("Failed to insert upload record",
			zap.String("bucket", rec.Bucket),
			zap.String("name", rec.Name),
			zap.Error(err))
		return err
	}

	return nil
}

func (r *metadataRepository) Close() error {
	return r.db.Close()
}

// RunMigrations applies all pending schema migrations. A database already at
// the latest version is not an error.
func RunMigrations(databaseURL, migrationsPath string, log *zap.Logger) error {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Warn("Database is in dirty state", zap.Uint("version", version))
	} else {
		log.Info("Database migrated", zap.Uint("version", version))
	}

	return nil
}
