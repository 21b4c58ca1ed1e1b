package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduleRepository_FindWithReservedSeats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.New()
	tourID := uuid.New()
	starts := now.Add(48 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM schedules s`)).WithArgs(id, now).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "tour_id", "starts_at", "ends_at", "capacity", "status", "created_at", "updated_at", "reserved",
		}).AddRow(id, tourID, starts, starts.Add(3*time.Hour), 12, entity.ScheduleStatusActive, now, now, 7))

	repo := NewScheduleRepository(mock, zap.NewNop())
	schedule, reserved, err := repo.FindWithReservedSeats(context.Background(), id, now)

	require.NoError(t, err)
	assert.Equal(t, 12, schedule.Capacity)
	assert.Equal(t, tourID, schedule.TourID)
	assert.Equal(t, 7, reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE schedules SET status = $2`)).
		WithArgs(id, entity.ScheduleStatusCancelled, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewScheduleRepository(mock, zap.NewNop())
	err = repo.UpdateStatus(context.Background(), id, entity.ScheduleStatusCancelled, now)

	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
