package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"parkslot/internal/entities"
	"parkslot/internal/upi"
	"parkslot/internal/utils"
)

// Catalog supplies the parking location the wizard books against.
type Catalog interface {
	Location(ctx context.Context) (*entities.ParkingLocation, error)
}

// Identity supplies the current user and their registered vehicles.
type Identity interface {
	CurrentUser(ctx context.Context) (*entities.User, error)
}

// Backend accepts booking-creation requests and UPI transaction references.
// CreateBooking returns the booking identifier; SubmitUPITransaction returns
// nil on an acknowledged hand-off, a *BackendRejection on a well-formed
// negative answer and a *TransportError otherwise.
type Backend interface {
	CreateBooking(ctx context.Context, req entities.BookingRequest) (string, error)
	SubmitUPITransaction(ctx context.Context, bookingID, txnRef string) error
}

var upiIDPattern = regexp.MustCompile(`.+@.+`)

// Result messages surfaced on the UPI step.
const (
	msgTxnSubmitted = "Transaction ID submitted! Awaiting verification."
	msgTxnRejected  = "Submission failed. Please try again."
	msgTxnFailed    = "Server error. Please try again later."
)

// Session is one open instance of the booking wizard. All state transitions
// run one at a time under the session lock; the two backend calls release
// the lock while outstanding and are single-flight gated. A generation
// counter bumped on every Reset lets late responses be detected and dropped.
type Session struct {
	catalog  Catalog
	identity Identity
	backend  Backend
	payeeVPA string
	now      func() time.Time

	mu       sync.Mutex
	gen      uint64
	creating bool
	draft    Draft
}

func NewSession(catalog Catalog, identity Identity, backend Backend, payeeVPA string) *Session {
	s := &Session{
		catalog:  catalog,
		identity: identity,
		backend:  backend,
		payeeVPA: payeeVPA,
		now:      time.Now,
	}
	s.draft = newDraft(s.now())
	return s
}

// Draft returns a snapshot of the booking-in-progress state.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Reset discards the draft and returns the wizard to its opening state.
// Any outstanding backend response is abandoned.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.creating = false
	s.draft = newDraft(s.now())
}

// SelectVehicleType moves vehicle-type -> slot-selection. The type must be
// one the location offers.
func (s *Session) SelectVehicleType(ctx context.Context, vehicleType string) error {
	loc, err := s.catalog.Location(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	offered := false
	for _, t := range loc.VehicleTypes {
		if t == vehicleType {
			offered = true
			break
		}
	}
	if !offered {
		return &ValidationError{Message: fmt.Sprintf("vehicle type %q is not offered here", vehicleType)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepVehicleType {
		return ErrInvalidTransition
	}
	s.draft.VehicleType = vehicleType
	s.draft.SlotID = ""
	s.draft.Step = StepSlotSelection
	return nil
}

// AvailableSlots derives the selectable slots for the chosen vehicle type.
func (s *Session) AvailableSlots(ctx context.Context) ([]entities.Slot, error) {
	loc, err := s.catalog.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	s.mu.Lock()
	vehicleType := s.draft.VehicleType
	s.mu.Unlock()
	if vehicleType == "" {
		return nil, nil
	}
	return AvailableSlots(loc, vehicleType), nil
}

// SelectSlot moves slot-selection -> details. The slot must be in the
// available set for the chosen vehicle type at selection time.
func (s *Session) SelectSlot(ctx context.Context, slotID string) error {
	loc, err := s.catalog.Location(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepSlotSelection {
		return ErrInvalidTransition
	}
	for _, slot := range AvailableSlots(loc, s.draft.VehicleType) {
		if slot.ID == slotID {
			s.draft.SlotID = slotID
			s.draft.Step = StepDetails
			return nil
		}
	}
	return &ValidationError{Message: "slot is not available"}
}

// Back walks one step backwards and clears the fields owned by the steps it
// leaves behind. The upi and success steps have no backward edge.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.draft.Step {
	case StepSlotSelection:
		s.draft.VehicleType = ""
		s.draft.SlotID = ""
		s.draft.Step = StepVehicleType
	case StepDetails:
		s.draft.SlotID = ""
		s.draft.Step = StepSlotSelection
	case StepPayment:
		s.draft.Step = StepDetails
	default:
		return ErrInvalidTransition
	}
	return nil
}

// SetVehicle records either a registered vehicle or a custom plate number
// for the details step; setting one clears the other. A registered vehicle
// must belong to the current user and match the selected type.
func (s *Session) SetVehicle(ctx context.Context, vehicleID, customNumber string) error {
	if vehicleID != "" && customNumber != "" {
		return &ValidationError{Message: "choose a registered vehicle or enter a number, not both"}
	}
	var chosen *entities.Vehicle
	if vehicleID != "" {
		user, err := s.identity.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		for i := range user.Vehicles {
			if user.Vehicles[i].ID == vehicleID {
				chosen = &user.Vehicles[i]
				break
			}
		}
		if chosen == nil {
			return &ValidationError{Message: "unknown vehicle"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepDetails {
		return ErrInvalidTransition
	}
	if chosen != nil && chosen.Type != s.draft.VehicleType {
		return &ValidationError{Message: "vehicle does not match the selected type"}
	}
	s.draft.VehicleID = vehicleID
	s.draft.CustomVehicleNumber = customNumber
	return nil
}

// SetSchedule records the booking start. A time before today's minimum is
// corrected to the minimum and reported through the returned notice rather
// than failing the step. Future dates only floor at "00:00".
func (s *Session) SetSchedule(date, startTime string) (string, error) {
	if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return "", &ValidationError{Message: "invalid date"}
	}
	if _, err := time.Parse(utils.TimeLayout, startTime); err != nil {
		return "", &ValidationError{Message: "invalid time"}
	}
	now := s.now()
	if date < now.Format(utils.DateLayout) {
		return "", &ValidationError{Message: "date must not be in the past"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepDetails {
		return "", ErrInvalidTransition
	}
	var notice string
	if min := utils.MinStartTime(date, now); startTime < min {
		startTime = min
		notice = fmt.Sprintf("Please pick a valid time (minimum: %s)", min)
	}
	s.draft.Date = date
	s.draft.Time = startTime
	return notice, nil
}

func (s *Session) SetDuration(hours int) error {
	if !utils.IsAllowedDuration(hours) {
		return &ValidationError{Message: fmt.Sprintf("a duration of %d hours is not offered", hours)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepDetails {
		return ErrInvalidTransition
	}
	s.draft.DurationHours = hours
	return nil
}

// TotalCost derives the price of the draft as it stands: slot price per
// hour times duration, zero when no slot is chosen.
func (s *Session) TotalCost(ctx context.Context) (int, error) {
	loc, err := s.catalog.Location(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}
	s.mu.Lock()
	slotID, hours := s.draft.SlotID, s.draft.DurationHours
	s.mu.Unlock()
	if slot, ok := findSlot(loc, slotID); ok {
		return TotalCost(slot, hours), nil
	}
	return 0, nil
}

// SubmitDetails gates details -> payment. Exactly one of the registered
// vehicle and the custom number must be present. A zero-cost total skips
// payment entirely and creates the booking right away.
func (s *Session) SubmitDetails(ctx context.Context) error {
	s.mu.Lock()
	if s.draft.Step != StepDetails {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.draft.VehicleID == "" && s.draft.CustomVehicleNumber == "" {
		s.mu.Unlock()
		return &ValidationError{Message: "Please select or enter a vehicle number"}
	}
	s.mu.Unlock()

	total, err := s.TotalCost(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return s.createBooking(ctx, StepDetails, StepSuccess)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepDetails {
		return ErrInvalidTransition
	}
	s.draft.Step = StepPayment
	return nil
}

func (s *Session) ChoosePaymentMethod(method string) error {
	if method != PaymentMethodUPI {
		return &ValidationError{Message: fmt.Sprintf("payment method %q is not supported", method)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepPayment {
		return ErrInvalidTransition
	}
	s.draft.PaymentMethod = method
	return nil
}

// CompleteBooking acts on the payment step. A zero-cost total books
// directly and lands on success; a positive total with the upi method
// creates the booking first so the transaction reference has a real
// identifier to attach to, then enters the UPI sub-flow.
func (s *Session) CompleteBooking(ctx context.Context) error {
	s.mu.Lock()
	if s.draft.Step != StepPayment {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	method := s.draft.PaymentMethod
	s.mu.Unlock()

	total, err := s.TotalCost(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return s.createBooking(ctx, StepPayment, StepSuccess)
	}
	if method != PaymentMethodUPI {
		return &ValidationError{Message: fmt.Sprintf("payment method %q is not supported", method)}
	}
	return s.createBooking(ctx, StepPayment, StepUPI)
}

// EnterUPIID validates the payer handle and reveals payment instructions.
// Re-entering a handle while instructions are shown is allowed.
func (s *Session) EnterUPIID(id string) error {
	if !upiIDPattern.MatchString(id) {
		return &ValidationError{Message: "Please enter a valid UPI ID"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Step != StepUPI {
		return ErrInvalidTransition
	}
	s.draft.UPI.ID = id
	s.draft.UPI.InstructionsShown = true
	return nil
}

// PaymentInstructions derives the deep link and QR reference for the total
// owed to the payee handle. No network call is involved.
func (s *Session) PaymentInstructions(ctx context.Context) (*upi.Instructions, error) {
	s.mu.Lock()
	if s.draft.Step != StepUPI || !s.draft.UPI.InstructionsShown {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	s.mu.Unlock()

	total, err := s.TotalCost(ctx)
	if err != nil {
		return nil, err
	}
	ins := upi.NewInstructions(total, s.payeeVPA)
	return &ins, nil
}

// SubmitTransactionRef hands the user-reported UPI reference to the
// backend. The three outcomes all leave the control interactive again:
// acknowledgement advances to success, a rejection or transport failure
// keeps the upi step with a retry message. The returned string is the
// user-visible result message.
func (s *Session) SubmitTransactionRef(ctx context.Context, txnRef string) (string, error) {
	if txnRef == "" {
		return "", &ValidationError{Message: "Please enter your UPI transaction reference"}
	}

	s.mu.Lock()
	if s.draft.Step != StepUPI || !s.draft.UPI.InstructionsShown {
		s.mu.Unlock()
		return "", ErrInvalidTransition
	}
	if s.draft.BookingID == "" {
		s.mu.Unlock()
		return "", ErrInvalidTransition
	}
	if s.draft.UPI.Submitting {
		s.mu.Unlock()
		return "", ErrRequestInFlight
	}
	s.draft.UPI.Submitting = true
	s.draft.UPI.TxnRef = txnRef
	gen := s.gen
	bookingID := s.draft.BookingID
	s.mu.Unlock()

	err := s.backend.SubmitUPITransaction(ctx, bookingID, txnRef)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// The session was reset while the request was out; the fresh draft
		// must not see this result.
		return "", ErrSessionReset
	}
	s.draft.UPI.Submitting = false
	var rejection *BackendRejection
	switch {
	case err == nil:
		s.draft.UPI.ResultMessage = msgTxnSubmitted
		s.draft.Step = StepSuccess
	case errors.As(err, &rejection):
		s.draft.UPI.ResultMessage = msgTxnRejected
	default:
		s.draft.UPI.ResultMessage = msgTxnFailed
	}
	return s.draft.UPI.ResultMessage, nil
}

// createBooking issues the single-flight creation request and, on success,
// stores the returned identifier and advances from the step the request was
// made on to next. Failures leave the draft exactly where it was.
func (s *Session) createBooking(ctx context.Context, from, next Step) error {
	vehicle, userID, err := s.resolveVehicle(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.draft.Step != from {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.creating {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	s.creating = true
	gen := s.gen
	req := entities.BookingRequest{
		SlotID:        s.draft.SlotID,
		Vehicle:       vehicle,
		Date:          s.draft.Date,
		Time:          s.draft.Time,
		DurationHours: s.draft.DurationHours,
		UserID:        userID,
	}
	s.mu.Unlock()

	bookingID, callErr := s.backend.CreateBooking(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return ErrSessionReset
	}
	s.creating = false
	if s.draft.Step != from {
		return ErrInvalidTransition
	}
	if callErr != nil {
		return callErr
	}
	if bookingID == "" {
		return &BackendRejection{Message: "booking backend returned no identifier"}
	}
	s.draft.BookingID = bookingID
	s.draft.Step = next
	return nil
}

// resolveVehicle yields the vehicle string for the creation request: the
// custom number as typed, or the registered vehicle's plate number.
func (s *Session) resolveVehicle(ctx context.Context) (vehicle, userID string, err error) {
	s.mu.Lock()
	vehicleID := s.draft.VehicleID
	custom := s.draft.CustomVehicleNumber
	s.mu.Unlock()

	user, uerr := s.identity.CurrentUser(ctx)
	if uerr == nil && user != nil {
		userID = user.ID
	}
	if custom != "" {
		return custom, userID, nil
	}
	if vehicleID == "" {
		return "", "", &ValidationError{Message: "Please select or enter a vehicle number"}
	}
	if uerr != nil {
		return "", "", fmt.Errorf("loading user: %w", uerr)
	}
	for _, v := range user.Vehicles {
		if v.ID == vehicleID {
			return v.Number, userID, nil
		}
	}
	return "", "", &ValidationError{Message: "unknown vehicle"}
}
