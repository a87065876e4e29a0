package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"
)

// DailyCheckInCount is one day's worth of check-in volume.
type DailyCheckInCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// HourlyCheckInCount is check-in volume for one hour of the day.
type HourlyCheckInCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// CheckInRepository defines the interface for check-in database operations.
type CheckInRepository interface {
	CreateCheckIn(executor SQLExecutor, checkIn *models.CheckIn) (int64, error)
	GetOpenCheckIn(memberID int64) (*models.CheckIn, error)
	CloseCheckIn(executor SQLExecutor, checkInID int64, at time.Time) error
	CountCurrentOccupancy() (int, error)
	DailyCounts(since time.Time) ([]DailyCheckInCount, error)
	PeakHours(since time.Time) ([]HourlyCheckInCount, error)
}

type checkInRepository struct {
	db *sql.DB
}

// NewCheckInRepository creates a new instance of CheckInRepository.
func NewCheckInRepository(db *sql.DB) CheckInRepository {
	return &checkInRepository{db: db}
}

// CreateCheckIn inserts a new check-in row.
func (r *checkInRepository) CreateCheckIn(executor SQLExecutor, checkIn *models.CheckIn) (int64, error) {
	query := `INSERT INTO check_ins (member_id, check_in_time, method, notes)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if checkIn.CheckInTime.IsZero() {
		checkIn.CheckInTime = time.Now()
	}

	err := executor.QueryRow(query,
		checkIn.MemberID, checkIn.CheckInTime, checkIn.Method, checkIn.Notes,
	).Scan(&checkIn.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating check-in: %v", ErrDatabaseError, err)
	}
	return checkIn.ID, nil
}

// GetOpenCheckIn returns the member's check-in without a check-out time, if any.
func (r *checkInRepository) GetOpenCheckIn(memberID int64) (*models.CheckIn, error) {
	checkIn := &models.CheckIn{}
	query := `SELECT id, member_id, check_in_time, check_out_time, method, notes
	          FROM check_ins
	          WHERE member_id = $1 AND check_out_time IS NULL
	          ORDER BY check_in_time DESC
	          LIMIT 1`

	var checkOut sql.NullTime
	err := r.db.QueryRow(query, memberID).Scan(
		&checkIn.ID, &checkIn.MemberID, &checkIn.CheckInTime, &checkOut, &checkIn.Method, &checkIn.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting open check-in for member %d: %v", ErrDatabaseError, memberID, err)
	}
	if checkOut.Valid {
		checkIn.CheckOutTime = &checkOut.Time
	}
	return checkIn, nil
}

// CloseCheckIn sets the check-out time on an open check-in.
func (r *checkInRepository) CloseCheckIn(executor SQLExecutor, checkInID int64, at time.Time) error {
	query := `UPDATE check_ins SET check_out_time = $1 WHERE id = $2 AND check_out_time IS NULL`
	result, err := executor.Exec(query, at, checkInID)
	if err != nil {
		return fmt.Errorf("%w: closing check-in ID %d: %v", ErrDatabaseError, checkInID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for check-in ID %d: %v", ErrDatabaseError, checkInID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCurrentOccupancy counts members currently on the floor (checked in,
// not checked out).
func (r *checkInRepository) CountCurrentOccupancy() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(id) FROM check_ins WHERE check_out_time IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting current occupancy: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// DailyCounts returns per-day check-in counts since the given time.
func (r *checkInRepository) DailyCounts(since time.Time) ([]DailyCheckInCount, error) {
	query := `SELECT DATE(check_in_time)::text AS day, COUNT(id)
	          FROM check_ins
	          WHERE check_in_time >= $1
	          GROUP BY day
	          ORDER BY day ASC`

	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily check-in counts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := []DailyCheckInCount{}
	for rows.Next() {
		var c DailyCheckInCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning daily check-in count: %v", ErrDatabaseError, err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily check-in counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}

// PeakHours returns per-hour check-in counts since the given time, busiest
// hours first.
func (r *checkInRepository) PeakHours(since time.Time) ([]HourlyCheckInCount, error) {
	query := `SELECT EXTRACT(HOUR FROM check_in_time)::int AS hour, COUNT(id)
	          FROM check_ins
	          WHERE check_in_time >= $1
	          GROUP BY hour
	          ORDER BY COUNT(id) DESC`

	rows, err := r.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("%w: querying peak hours: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := []HourlyCheckInCount{}
	for rows.Next() {
		var c HourlyCheckInCount
		if err := rows.Scan(&c.Hour, &c.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning peak hour count: %v", ErrDatabaseError, err)
		}
		counts = append(counts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating peak hour counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}
