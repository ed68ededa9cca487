package api

import (
	"parkslot/internal/entities"
	"parkslot/internal/upi"
)

// Auth
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Wizard events
type VehicleTypeRequest struct {
	VehicleType string `json:"vehicle_type"`
}

type SlotRequest struct {
	SlotID string `json:"slot_id"`
}

type DetailsRequest struct {
	VehicleID     string `json:"vehicle_id"`
	VehicleNumber string `json:"vehicle_number"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DurationHours int    `json:"duration_hours"`
}

type PaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type UPIIDRequest struct {
	UPIID string `json:"upi_id"`
}

type TxnRefRequest struct {
	TxnRef string `json:"txn_ref"`
}

type UPIStateResponse struct {
	UPIID             string `json:"upi_id,omitempty"`
	InstructionsShown bool   `json:"instructions_shown"`
	Submitting        bool   `json:"submitting"`
	ResultMessage     string `json:"result_message,omitempty"`
}

// WizardStateResponse is the draft snapshot plus the derived values the
// current step needs.
type WizardStateResponse struct {
	SessionID           string            `json:"session_id"`
	Step                string            `json:"step"`
	VehicleType         string            `json:"vehicle_type,omitempty"`
	SlotID              string            `json:"slot_id,omitempty"`
	VehicleID           string            `json:"vehicle_id,omitempty"`
	CustomVehicleNumber string            `json:"custom_vehicle_number,omitempty"`
	Date                string            `json:"date"`
	Time                string            `json:"time"`
	DurationHours       int               `json:"duration_hours"`
	PaymentMethod       string            `json:"payment_method"`
	BookingID           string            `json:"booking_id,omitempty"`
	TotalCost           int               `json:"total_cost"`
	AvailableSlots      []entities.Slot   `json:"available_slots,omitempty"`
	UPI                 *UPIStateResponse `json:"upi,omitempty"`
	Instructions        *upi.Instructions `json:"payment_instructions,omitempty"`
	Notice              string            `json:"notice,omitempty"`
}

type VehiclesResponse struct {
	Vehicles []entities.Vehicle `json:"vehicles"`
}
