package entities

// BookingRequest is the wire shape the wizard sends to the booking backend.
type BookingRequest struct {
	SlotID        string `json:"slotId"`
	Vehicle       string `json:"vehicle"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DurationHours int    `json:"durationHours"`
	UserID        string `json:"userId,omitempty"`
}

type BookingResponse struct {
	BookingID string `json:"booking_id"`
	Message   string `json:"message"`
}

// UPITxnRequest reports a user-supplied transaction reference for a booking.
// Verification happens out of band; the backend only records the hand-off.
type UPITxnRequest struct {
	PaymentID string `json:"payment_id"`
	UPITxnID  string `json:"upi_txn_id"`
}

type UPITxnResponse struct {
	Success bool `json:"success"`
}
