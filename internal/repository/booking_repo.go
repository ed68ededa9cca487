package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"parkslot/internal/db"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

func (r *BookingRepository) GetSlot(slotID string) (*db.Slot, error) {
	var s db.Slot
	err := r.DB.QueryRow(`
		SELECT id, location_id, slot_number, vehicle_type, status, price_per_hour
		FROM slots WHERE id = $1`, slotID).
		Scan(&s.ID, &s.LocationID, &s.SlotNumber, &s.VehicleType, &s.Status, &s.PricePerHour)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("slot '%s' not found: %w", slotID, err)
		}
		return nil, fmt.Errorf("error querying slot: %w", err)
	}
	return &s, nil
}

// CreateBooking inserts the booking, flips the slot to occupied and, when
// the total is positive, opens a pending payment row, all in one
// transaction.
func (r *BookingRepository) CreateBooking(booking *db.Booking, amount int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO bookings (code, user_id, slot_id, vehicle_number, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		booking.Code,
		booking.UserID,
		booking.SlotID,
		booking.VehicleNumber,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("error inserting booking: %w", err)
	}

	res, err := tx.Exec(`UPDATE slots SET status = 'occupied' WHERE id = $1 AND status = 'available'`, booking.SlotID)
	if err != nil {
		return fmt.Errorf("error occupying slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking slot update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("slot '%s' is no longer available", booking.SlotID)
	}

	if amount > 0 {
		_, err = tx.Exec(`INSERT INTO payments (booking_id, amount, status, created_at) VALUES ($1, $2, 'Pending', $3)`,
			booking.ID, amount, booking.CreatedAt)
		if err != nil {
			return fmt.Errorf("error inserting payment: %w", err)
		}
	}

	return tx.Commit()
}

// RecordUPITransaction stores the reported reference on the booking's
// pending payment. Returns false when no pending payment matches the code.
func (r *BookingRepository) RecordUPITransaction(bookingCode, txnRef string) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE payments SET upi_txn_id = $2
		WHERE status = 'Pending'
		  AND booking_id = (SELECT id FROM bookings WHERE code = $1)`,
		bookingCode, txnRef)
	if err != nil {
		return false, fmt.Errorf("error recording UPI transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error checking payment update: %w", err)
	}
	return affected > 0, nil
}
