package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock/internal/domain/location"
	"github.com/cmlabs-hris/timeclock/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const timeEntryColumns = `
	id, user_id, clock_in_time, clock_out_time,
	location_in_lat, location_in_lng, location_out_lat, location_out_lng,
	daily_report`

func scanTimeEntry(row pgx.Row) (attendance.Record, error) {
	var (
		r              attendance.Record
		inLat, inLng   *float64
		outLat, outLng *float64
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.ClockIn, &r.ClockOut,
		&inLat, &inLng, &outLat, &outLng,
		&r.DailyReport,
	)
	if err != nil {
		return attendance.Record{}, err
	}
	r.LocationIn = coordinates(inLat, inLng)
	r.LocationOut = coordinates(outLat, outLng)
	return r, nil
}

func coordinates(lat, lng *float64) *location.Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &location.Coordinates{Latitude: *lat, Longitude: *lng}
}

func latLng(c *location.Coordinates) (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Latitude, &c.Longitude
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", attendance.ErrPersistence, op, err)
}

func (a *attendanceRepository) findOne(ctx context.Context, op string, query string, args ...interface{}) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	r, err := scanTimeEntry(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceError(op, err)
	}
	return &r, nil
}

// FindOpen implements attendance.Repository.
func (a *attendanceRepository) FindOpen(ctx context.Context, userID string) (*attendance.Record, error) {
	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE user_id = $1
		  AND clock_out_time IS NULL
		ORDER BY clock_in_time DESC
		LIMIT 1
	`
	return a.findOne(ctx, "find open time entry", query, userID)
}

// FindLatest implements attendance.Repository.
func (a *attendanceRepository) FindLatest(ctx context.Context, userID string) (*attendance.Record, error) {
	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE user_id = $1
		ORDER BY clock_in_time DESC
		LIMIT 1
	`
	return a.findOne(ctx, "find latest time entry", query, userID)
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, userID string, at *location.Coordinates) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	lat, lng := latLng(at)
	query := `
		INSERT INTO time_entries (user_id, clock_in_time, location_in_lat, location_in_lng)
		VALUES ($1, now(), $2, $3)
		RETURNING` + timeEntryColumns

	r, err := scanTimeEntry(q.QueryRow(ctx, query, userID, lat, lng))
	if err != nil {
		return attendance.Record{}, persistenceError("create time entry", err)
	}
	return r, nil
}

// CloseOpen implements attendance.Repository.
func (a *attendanceRepository) CloseOpen(ctx context.Context, recordID string, at *location.Coordinates) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	lat, lng := latLng(at)
	query := `
		UPDATE time_entries
		SET clock_out_time = now(),
			location_out_lat = $2,
			location_out_lng = $3
		WHERE id = $1
		  AND clock_out_time IS NULL
		RETURNING` + timeEntryColumns

	r, err := scanTimeEntry(q.QueryRow(ctx, query, recordID, lat, lng))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, persistenceError("close time entry", err)
	}
	return r, nil
}

// SetReport implements attendance.Repository.
func (a *attendanceRepository) SetReport(ctx context.Context, recordID string, report string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE time_entries
		SET daily_report = $2
		WHERE id = $1
		  AND clock_out_time IS NOT NULL
		  AND daily_report IS NULL
		RETURNING` + timeEntryColumns

	r, err := scanTimeEntry(q.QueryRow(ctx, query, recordID, report))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, persistenceError("set daily report", err)
	}
	return r, nil
}

// ListByUserBetween implements attendance.Repository.
func (a *attendanceRepository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE user_id = $1
		  AND clock_in_time >= $2
		  AND clock_in_time <= $3
		ORDER BY clock_in_time DESC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, persistenceError("list time entries", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		r, err := scanTimeEntry(rows)
		if err != nil {
			return nil, persistenceError("scan time entry", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("list time entries", err)
	}

	return records, nil
}

// FindUsersWithMultipleOpen implements attendance.Repository.
func (a *attendanceRepository) FindUsersWithMultipleOpen(ctx context.Context) ([]attendance.OpenCount, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT user_id, COUNT(*)
		FROM time_entries
		WHERE clock_out_time IS NULL
		GROUP BY user_id
		HAVING COUNT(*) > 1
		ORDER BY user_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, persistenceError("count open time entries", err)
	}
	defer rows.Close()

	var counts []attendance.OpenCount
	for rows.Next() {
		var c attendance.OpenCount
		if err := rows.Scan(&c.UserID, &c.Open); err != nil {
			return nil, persistenceError("scan open count", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("count open time entries", err)
	}

	return counts, nil
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}
