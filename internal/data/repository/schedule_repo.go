package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour-booking/internal/data/entity"
	"tour-booking/internal/domain"
	"tour-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	FindByTourID(ctx context.Context, tourID uuid.UUID) ([]*entity.Schedule, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ScheduleStatus, now time.Time) error

	// FindWithReservedSeats returns the schedule together with the seats
	// reserved at now, read in a single statement.
	FindWithReservedSeats(ctx context.Context, id uuid.UUID, now time.Time) (*entity.Schedule, int, error)
}

type scheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduleRepository(db database.PgxIface, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "schedule")),
	}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	query := `
		INSERT INTO schedules (id, tour_id, starts_at, ends_at, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		schedule.ID,
		schedule.TourID,
		schedule.StartsAt,
		schedule.EndsAt,
		schedule.Capacity,
		schedule.Status,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create schedule",
			zap.Error(err),
			zap.String("tour_id", schedule.TourID.String()),
			zap.Time("starts_at", schedule.StartsAt),
		)
		return fmt.Errorf("create schedule for tour %s: %w", schedule.TourID.String(), err)
	}

	return nil
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	query := `
		SELECT id, tour_id, starts_at, ends_at, capacity, status, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`

	schedule, err := scanSchedule(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScheduleNotFound
	}
	if err != nil {
		r.log.Error("Failed to find schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) FindByTourID(ctx context.Context, tourID uuid.UUID) ([]*entity.Schedule, error) {
	query := `
		SELECT id, tour_id, starts_at, ends_at, capacity, status, created_at, updated_at
		FROM schedules
		WHERE tour_id = $1
		ORDER BY starts_at
	`

	rows, err := r.db.Query(ctx, query, tourID)
	if err != nil {
		r.log.Error("Failed to find schedules by tour ID",
			zap.Error(err),
			zap.String("tour_id", tourID.String()),
		)
		return nil, fmt.Errorf("find schedules by tour ID %s: %w", tourID.String(), err)
	}
	defer rows.Close()

	var schedules []*entity.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan schedule row", zap.Error(err))
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

func (r *scheduleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ScheduleStatus, now time.Time) error {
	query := `UPDATE schedules SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, status, now)
	if err != nil {
		r.log.Error("Failed to update schedule status",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update schedule %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrScheduleNotFound
	}

	return nil
}

func (r *scheduleRepository) FindWithReservedSeats(ctx context.Context, id uuid.UUID, now time.Time) (*entity.Schedule, int, error) {
	query := `
		SELECT s.id, s.tour_id, s.starts_at, s.ends_at, s.capacity, s.status, s.created_at, s.updated_at,
		       COALESCE((
		           SELECT SUM(b.party_size)
		           FROM bookings b
		           WHERE b.schedule_id = s.id
		             AND (b.status = 'confirmed' OR (b.status = 'pending' AND b.expires_at > $2))
		       ), 0)
		FROM schedules s
		WHERE s.id = $1
	`

	var schedule entity.Schedule
	var reserved int
	err := r.db.QueryRow(ctx, query, id, now).Scan(
		&schedule.ID,
		&schedule.TourID,
		&schedule.StartsAt,
		&schedule.EndsAt,
		&schedule.Capacity,
		&schedule.Status,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
		&reserved,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, domain.ErrScheduleNotFound
	}
	if err != nil {
		r.log.Error("Failed to read schedule availability",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, 0, fmt.Errorf("read availability for schedule %s: %w", id.String(), err)
	}

	return &schedule, reserved, nil
}

func scanSchedule(row rowScanner) (*entity.Schedule, error) {
	var schedule entity.Schedule
	err := row.Scan(
		&schedule.ID,
		&schedule.TourID,
		&schedule.StartsAt,
		&schedule.EndsAt,
		&schedule.Capacity,
		&schedule.Status,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}
