package testhelpers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFixtures loads SQL fixture files into the database
func LoadFixtures(db *sql.DB, fixturesPath string, files []string) error {
	for _, file := range files {
		path := filepath.Join(fixturesPath, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("load fixture %s: %w", file, err)
		}
	}

	return nil
}

// RecordFixture - строка таблицы voxel_records для тестов
type RecordFixture struct {
	Dataset    string
	Lon, Lat   float64
	Alt        float64
	Category   string
	Weight     *float64
	Properties map[string]any
}

// InsertRecords inserts fixture records and returns their IDs
func InsertRecords(ctx context.Context, db *sql.DB, records []RecordFixture) ([]int64, error) {
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		var props []byte
		if rec.Properties != nil {
			var err error
			if props, err = json.Marshal(rec.Properties); err != nil {
				return nil, fmt.Errorf("marshal properties: %w", err)
			}
		}
		var category *string
		if rec.Category != "" {
			category = &rec.Category
		}

		var id int64
		err := db.QueryRowContext(ctx, `
			INSERT INTO voxel_records (dataset, geom, alt, category, weight, properties)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4, $5, $6, $7)
			RETURNING id`,
			rec.Dataset, rec.Lon, rec.Lat, rec.Alt, category, rec.Weight, props,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert record: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
