package postgres

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voxel-density-service/internal/domain/repository"
	"github.com/voxel-density-service/internal/pkg/errors"
)

func TestRecordRepository_RequiresDataset(t *testing.T) {
	repo := NewRecordRepository(NewDBForTest(nil, nil))

	_, err := repo.ListByDataset(context.Background(), repository.RecordFilter{})
	assert.True(t, stderrors.Is(err, errors.ErrInvalidRequest))
}

func TestRecordRepository_ToRecord(t *testing.T) {
	repo := &recordRepository{logger: NewDBForTest(nil, nil).logger}

	rec := repo.toRecord(&recordRow{ID: "7", Lon: 1, Lat: 2, Alt: 3, Properties: []byte(`{"a":"b"}`)})
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, 1.0, *rec.Lon)
	assert.Equal(t, "b", rec.Properties["a"])
	assert.Equal(t, 1.0, rec.Weight())

	broken := repo.toRecord(&recordRow{ID: "8", Properties: []byte(`{`)})
	assert.Nil(t, broken.Properties)
}
