package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewRecordRepositoryForTest creates a record repository with test database and logger
func NewRecordRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.RecordRepository {
	return postgres.NewRecordRepository(NewDBForTest(db, logger))
}
