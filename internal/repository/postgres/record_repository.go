package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/voxel-density-service/internal/domain"
	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
)

type recordRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRecordRepository(db *DB) repository.RecordRepository {
	return &recordRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type recordRow struct {
	ID         string          `db:"id"`
	Lon        float64         `db:"lon"`
	Lat        float64         `db:"lat"`
	Alt        float64         `db:"alt"`
	Category   sql.NullString  `db:"category"`
	Weight     sql.NullFloat64 `db:"weight"`
	Properties []byte          `db:"properties"`
}

func (r *recordRepository) ListByDataset(ctx context.Context, filter repository.RecordFilter) ([]*domain.PointRecord, error) {
	if filter.Dataset == "" {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"field": "dataset"})
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT
			id::text AS id,
			ST_X(geom) AS lon,
			ST_Y(geom) AS lat,
			alt,
			category,
			weight,
			properties
		FROM ` + recordsTable + `
		WHERE dataset = $1`)
	args := []interface{}{filter.Dataset}

	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		fmt.Fprintf(&sb, " AND category = ANY($%d)", len(args))
	}
	if filter.BBox != nil {
		n := len(args)
		args = append(args, filter.BBox.MinLon, filter.BBox.MinLat, filter.BBox.MaxLon, filter.BBox.MaxLat)
		fmt.Fprintf(&sb, " AND geom && ST_MakeEnvelope($%d, $%d, $%d, $%d, %d)", n+1, n+2, n+3, n+4, SRID4326)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultRecordLimit
	}
	if limit > MaxRecordLimit {
		limit = MaxRecordLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY %s.id LIMIT $%d", recordsTable, len(args))

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		r.logger.Error("Failed to list dataset records",
			zap.String("dataset", filter.Dataset),
			zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	records := make([]*domain.PointRecord, 0, len(rows))
	for i := range rows {
		records = append(records, r.toRecord(&rows[i]))
	}

	r.logger.Debug("Dataset records loaded",
		zap.String("dataset", filter.Dataset),
		zap.Int("count", len(records)))

	return records, nil
}

func (r *recordRepository) toRecord(row *recordRow) *domain.PointRecord {
	lon, lat := row.Lon, row.Lat
	rec := &domain.PointRecord{
		ID:       row.ID,
		Lon:      &lon,
		Lat:      &lat,
		Alt:      row.Alt,
		Category: row.Category.String,
	}
	if row.Weight.Valid {
		w := row.Weight.Float64
		rec.W = &w
	}

	// Unmarshal properties JSON if present
	if len(row.Properties) > 0 {
		props := make(map[string]any)
		if err := json.Unmarshal(row.Properties, &props); err != nil {
			r.logger.Warn("Failed to unmarshal record properties", zap.String("id", row.ID), zap.Error(err))
		} else {
			rec.Properties = props
		}
	}
	return rec
}

func (r *recordRepository) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	query := `
		SELECT
			dataset,
			COUNT(*) AS record_count,
			MAX(created_at) AS updated_at
		FROM ` + recordsTable + `
		GROUP BY dataset
		ORDER BY dataset
	`

	var datasets []*domain.Dataset
	if err := r.db.SelectContext(ctx, &datasets, query); err != nil {
		r.logger.Error("Failed to list datasets", zap.Error(err))
		return nil, errors.ErrDatabaseError.Wrap(err)
	}

	return datasets, nil
}
