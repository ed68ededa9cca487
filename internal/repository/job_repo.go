package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// GetUpcomingBookingIDsPastEndTime finds bookings whose end time has passed
// but are still marked upcoming.
func (r *JobRepository) GetUpcomingBookingIDsPastEndTime() ([]int, error) {
	query := `SELECT id FROM bookings WHERE status = 'upcoming' AND end_time < NOW()`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying upcoming bookings past end time: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// CompleteBookings marks the bookings completed and frees their slots.
func (r *JobRepository) CompleteBookings(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := r.DB.Exec(`UPDATE bookings SET status = 'completed', updated_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating booking statuses: %w", err)
	}

	_, err = r.DB.Exec(`
		UPDATE slots SET status = 'available'
		WHERE id IN (SELECT slot_id FROM bookings WHERE id = ANY($1))`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error freeing slots: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Marked %d bookings as completed", rowsAffected)
	}
	return nil
}

// DeleteStalePendingPayments removes pending payments created before the
// given time that never received a transaction reference.
func (r *JobRepository) DeleteStalePendingPayments(before time.Time) (int64, error) {
	result, err := r.DB.Exec(`
		DELETE FROM payments
		WHERE status = 'Pending' AND upi_txn_id IS NULL AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale pending payments: %w", err)
	}
	return result.RowsAffected()
}
