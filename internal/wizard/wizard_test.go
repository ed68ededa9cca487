package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkslot/internal/entities"
)

type fakeCatalog struct {
	loc *entities.ParkingLocation
	err error
}

func (f *fakeCatalog) Location(ctx context.Context) (*entities.ParkingLocation, error) {
	return f.loc, f.err
}

type fakeIdentity struct {
	user *entities.User
	err  error
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*entities.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return &entities.User{}, nil
	}
	return f.user, nil
}

type fakeBackend struct {
	bookingID   string
	createErr   error
	submitErr   error
	createCalls int
	submitCalls int
	lastCreate  entities.BookingRequest
	lastTxnRef  string

	// when set, CreateBooking blocks until the channel is closed
	createGate chan struct{}
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req entities.BookingRequest) (string, error) {
	f.createCalls++
	f.lastCreate = req
	if f.createGate != nil {
		<-f.createGate
	}
	return f.bookingID, f.createErr
}

func (f *fakeBackend) SubmitUPITransaction(ctx context.Context, bookingID, txnRef string) error {
	f.submitCalls++
	f.lastTxnRef = txnRef
	return f.submitErr
}

func testLocation() *entities.ParkingLocation {
	return &entities.ParkingLocation{
		ID:           "loc-1",
		Name:         "Central Parking",
		VehicleTypes: []string{entities.VehicleTypeCar, entities.VehicleTypeBike},
		Slots: []entities.Slot{
			{ID: "c1", SlotNumber: "A1", VehicleType: entities.VehicleTypeCar, Status: entities.SlotStatusAvailable, PricePerHour: 50},
			{ID: "c2", SlotNumber: "A2", VehicleType: entities.VehicleTypeCar, Status: entities.SlotStatusOccupied, PricePerHour: 50},
			{ID: "b1", SlotNumber: "B1", VehicleType: entities.VehicleTypeBike, Status: entities.SlotStatusAvailable, PricePerHour: 20},
			{ID: "f1", SlotNumber: "F1", VehicleType: entities.VehicleTypeCar, Status: entities.SlotStatusAvailable, PricePerHour: 0},
		},
	}
}

var testNow = time.Date(2025, 6, 10, 10, 3, 27, 0, time.Local)

func newTestSession(backend *fakeBackend) *Session {
	return newTestSessionWith(backend, &fakeIdentity{})
}

func newTestSessionWith(backend *fakeBackend, identity Identity) *Session {
	s := NewSession(&fakeCatalog{loc: testLocation()}, identity, backend, "merchant@upi")
	s.now = func() time.Time { return testNow }
	s.draft = newDraft(testNow)
	return s
}

func advanceToDetails(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	if err := s.SelectVehicleType(ctx, entities.VehicleTypeCar); err != nil {
		t.Fatalf("SelectVehicleType: %v", err)
	}
	if err := s.SelectSlot(ctx, "c1"); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
}

func advanceToPayment(t *testing.T, s *Session) {
	t.Helper()
	ctx := context.Background()
	advanceToDetails(t, s)
	if err := s.SetVehicle(ctx, "", "KA01AB1234"); err != nil {
		t.Fatalf("SetVehicle: %v", err)
	}
	if err := s.SubmitDetails(ctx); err != nil {
		t.Fatalf("SubmitDetails: %v", err)
	}
	if got := s.Draft().Step; got != StepPayment {
		t.Fatalf("expected payment step, got %s", got)
	}
}

func advanceToUPI(t *testing.T, s *Session) {
	t.Helper()
	advanceToPayment(t, s)
	if err := s.CompleteBooking(context.Background()); err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if got := s.Draft().Step; got != StepUPI {
		t.Fatalf("expected upi step, got %s", got)
	}
}

func TestOpeningDraftDefaults(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	d := s.Draft()
	if d.Step != StepVehicleType {
		t.Errorf("expected vehicle-type step, got %s", d.Step)
	}
	if d.Date != "2025-06-10" {
		t.Errorf("expected today's date, got %q", d.Date)
	}
	if d.Time != "10:15" {
		t.Errorf("expected next quarter hour, got %q", d.Time)
	}
	if d.DurationHours != 2 {
		t.Errorf("expected default duration 2, got %d", d.DurationHours)
	}
	if d.PaymentMethod != PaymentMethodUPI {
		t.Errorf("expected upi default, got %q", d.PaymentMethod)
	}
}

func TestPaidBookingFlow(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{bookingID: "BK123"}
	s := newTestSession(backend)

	advanceToPayment(t, s)

	total, err := s.TotalCost(ctx)
	if err != nil {
		t.Fatalf("TotalCost: %v", err)
	}
	if total != 100 {
		t.Errorf("expected total 100 (50x2), got %d", total)
	}

	if err := s.ChoosePaymentMethod(PaymentMethodUPI); err != nil {
		t.Fatalf("ChoosePaymentMethod: %v", err)
	}
	if err := s.CompleteBooking(ctx); err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}

	d := s.Draft()
	if d.Step != StepUPI {
		t.Fatalf("expected upi step, got %s", d.Step)
	}
	if d.BookingID != "BK123" {
		t.Errorf("expected booking id stored, got %q", d.BookingID)
	}
	if backend.lastCreate.Vehicle != "KA01AB1234" {
		t.Errorf("expected custom number in request, got %q", backend.lastCreate.Vehicle)
	}
	if backend.lastCreate.SlotID != "c1" {
		t.Errorf("expected slot c1 in request, got %q", backend.lastCreate.SlotID)
	}

	if err := s.EnterUPIID("payer@bank"); err != nil {
		t.Fatalf("EnterUPIID: %v", err)
	}
	ins, err := s.PaymentInstructions(ctx)
	if err != nil {
		t.Fatalf("PaymentInstructions: %v", err)
	}
	if ins.Amount != 100 {
		t.Errorf("expected instruction amount 100, got %d", ins.Amount)
	}
	if ins.DeepLink != "upi://pay?pa=merchant@upi&pn=Parking+Payment&am=100&cu=INR" {
		t.Errorf("unexpected deep link %q", ins.DeepLink)
	}

	msg, err := s.SubmitTransactionRef(ctx, "TXN42")
	if err != nil {
		t.Fatalf("SubmitTransactionRef: %v", err)
	}
	if msg != "Transaction ID submitted! Awaiting verification." {
		t.Errorf("unexpected result message %q", msg)
	}
	d = s.Draft()
	if d.Step != StepSuccess {
		t.Errorf("expected success step, got %s", d.Step)
	}
	if d.UPI.Submitting {
		t.Error("submitting flag should be cleared")
	}
	if backend.lastTxnRef != "TXN42" {
		t.Errorf("expected txn ref forwarded, got %q", backend.lastTxnRef)
	}
}

func TestZeroCostSkipsPayment(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{bookingID: "BKFREE"}
	s := newTestSession(backend)

	if err := s.SelectVehicleType(ctx, entities.VehicleTypeCar); err != nil {
		t.Fatalf("SelectVehicleType: %v", err)
	}
	if err := s.SelectSlot(ctx, "f1"); err != nil {
		t.Fatalf("SelectSlot: %v", err)
	}
	if err := s.SetVehicle(ctx, "", "KA01AB1234"); err != nil {
		t.Fatalf("SetVehicle: %v", err)
	}
	if err := s.SubmitDetails(ctx); err != nil {
		t.Fatalf("SubmitDetails: %v", err)
	}

	d := s.Draft()
	if d.Step != StepSuccess {
		t.Fatalf("expected success step, got %s", d.Step)
	}
	if d.BookingID != "BKFREE" {
		t.Errorf("expected booking id stored, got %q", d.BookingID)
	}
	if backend.createCalls != 1 {
		t.Errorf("expected one creation call, got %d", backend.createCalls)
	}
	if backend.submitCalls != 0 {
		t.Errorf("expected no txn submission, got %d", backend.submitCalls)
	}
}

func TestSubmitDetailsRequiresVehicle(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	err := s.SubmitDetails(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != "Please select or enter a vehicle number" {
		t.Errorf("unexpected message %q", verr.Message)
	}
	if got := s.Draft().Step; got != StepDetails {
		t.Errorf("step should not advance, got %s", got)
	}
}

func TestSetVehicleRegisteredAndCustomAreExclusive(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	err := s.SetVehicle(context.Background(), "v1", "KA01AB1234")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetVehicleClearsTheOther(t *testing.T) {
	ctx := context.Background()
	identity := &fakeIdentity{user: &entities.User{
		ID: "u1",
		Vehicles: []entities.Vehicle{
			{ID: "v1", Number: "MH12XY9999", Type: entities.VehicleTypeCar},
		},
	}}
	s := newTestSessionWith(&fakeBackend{}, identity)
	advanceToDetails(t, s)

	if err := s.SetVehicle(ctx, "", "KA01AB1234"); err != nil {
		t.Fatalf("SetVehicle custom: %v", err)
	}
	if err := s.SetVehicle(ctx, "v1", ""); err != nil {
		t.Fatalf("SetVehicle registered: %v", err)
	}
	d := s.Draft()
	if d.CustomVehicleNumber != "" {
		t.Errorf("custom number should be cleared, got %q", d.CustomVehicleNumber)
	}
	if d.VehicleID != "v1" {
		t.Errorf("expected vehicle id v1, got %q", d.VehicleID)
	}
}

func TestSetVehicleTypeMismatch(t *testing.T) {
	identity := &fakeIdentity{user: &entities.User{
		ID: "u1",
		Vehicles: []entities.Vehicle{
			{ID: "v1", Number: "MH12XY9999", Type: entities.VehicleTypeBike},
		},
	}}
	s := newTestSessionWith(&fakeBackend{}, identity)
	advanceToDetails(t, s)

	err := s.SetVehicle(context.Background(), "v1", "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisteredVehicleNumberSentToBackend(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{bookingID: "BK9"}
	identity := &fakeIdentity{user: &entities.User{
		ID: "u1",
		Vehicles: []entities.Vehicle{
			{ID: "v1", Number: "MH12XY9999", Type: entities.VehicleTypeCar},
		},
	}}
	s := newTestSessionWith(backend, identity)
	advanceToDetails(t, s)

	if err := s.SetVehicle(ctx, "v1", ""); err != nil {
		t.Fatalf("SetVehicle: %v", err)
	}
	if err := s.SubmitDetails(ctx); err != nil {
		t.Fatalf("SubmitDetails: %v", err)
	}
	if err := s.CompleteBooking(ctx); err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if backend.lastCreate.Vehicle != "MH12XY9999" {
		t.Errorf("expected registered plate in request, got %q", backend.lastCreate.Vehicle)
	}
	if backend.lastCreate.UserID != "u1" {
		t.Errorf("expected user id in request, got %q", backend.lastCreate.UserID)
	}
}

func TestScheduleFlooredToMinimumWithNotice(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	notice, err := s.SetSchedule("2025-06-10", "09:00")
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if notice != "Please pick a valid time (minimum: 10:15)" {
		t.Errorf("unexpected notice %q", notice)
	}
	if got := s.Draft().Time; got != "10:15" {
		t.Errorf("expected corrected time 10:15, got %q", got)
	}
}

func TestScheduleFutureDateHasNoFloor(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	notice, err := s.SetSchedule("2025-06-11", "00:15")
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}
	if notice != "" {
		t.Errorf("expected no notice, got %q", notice)
	}
	if got := s.Draft().Time; got != "00:15" {
		t.Errorf("expected time kept, got %q", got)
	}
}

func TestSchedulePastDateRejected(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	_, err := s.SetSchedule("2025-06-09", "12:00")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSelectVehicleTypeNotOffered(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	err := s.SelectVehicleType(context.Background(), "truck")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := s.Draft().Step; got != StepVehicleType {
		t.Errorf("step should not advance, got %s", got)
	}
}

func TestSelectSlotMustBeAvailable(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(&fakeBackend{})
	if err := s.SelectVehicleType(ctx, entities.VehicleTypeCar); err != nil {
		t.Fatalf("SelectVehicleType: %v", err)
	}

	for _, slotID := range []string{"c2", "b1", "missing"} {
		err := s.SelectSlot(ctx, slotID)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("slot %q: expected validation error, got %v", slotID, err)
		}
	}
}

func TestAvailableSlotsFilter(t *testing.T) {
	slots := AvailableSlots(testLocation(), entities.VehicleTypeCar)
	if len(slots) != 2 {
		t.Fatalf("expected 2 available car slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Status != entities.SlotStatusAvailable || s.VehicleType != entities.VehicleTypeCar {
			t.Errorf("slot %q should not be selectable", s.ID)
		}
	}
}

func TestBackClearsDownstreamFields(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	if err := s.Back(); err != nil {
		t.Fatalf("Back from details: %v", err)
	}
	d := s.Draft()
	if d.Step != StepSlotSelection {
		t.Fatalf("expected slot-selection, got %s", d.Step)
	}
	if d.SlotID != "" {
		t.Errorf("slot should be cleared, got %q", d.SlotID)
	}
	if d.VehicleType != entities.VehicleTypeCar {
		t.Errorf("vehicle type should survive, got %q", d.VehicleType)
	}

	if err := s.Back(); err != nil {
		t.Fatalf("Back from slot-selection: %v", err)
	}
	d = s.Draft()
	if d.Step != StepVehicleType {
		t.Fatalf("expected vehicle-type, got %s", d.Step)
	}
	if d.VehicleType != "" {
		t.Errorf("vehicle type should be cleared, got %q", d.VehicleType)
	}

	if err := s.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected no backward edge from vehicle-type, got %v", err)
	}
}

func TestNoBackwardEdgeFromUPI(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1"}
	s := newTestSession(backend)
	advanceToUPI(t, s)

	if err := s.Back(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected no backward edge from upi, got %v", err)
	}
}

func TestEnterUPIIDValidation(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1"}
	s := newTestSession(backend)
	advanceToUPI(t, s)

	for _, id := range []string{"", "nohandle", "@bank", "payer@"} {
		err := s.EnterUPIID(id)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("id %q: expected validation error, got %v", id, err)
		}
	}
	if s.Draft().UPI.InstructionsShown {
		t.Error("instructions should stay hidden after invalid ids")
	}

	if err := s.EnterUPIID("payer@bank"); err != nil {
		t.Fatalf("EnterUPIID: %v", err)
	}
	if !s.Draft().UPI.InstructionsShown {
		t.Error("instructions should be shown after a valid id")
	}
}

func TestSubmitTransactionRefRequiresRef(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1"}
	s := newTestSession(backend)
	advanceToUPI(t, s)
	if err := s.EnterUPIID("payer@bank"); err != nil {
		t.Fatalf("EnterUPIID: %v", err)
	}

	_, err := s.SubmitTransactionRef(context.Background(), "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != "Please enter your UPI transaction reference" {
		t.Errorf("unexpected message %q", verr.Message)
	}
}

func TestSubmitTransactionRefRejectedKeepsStep(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1", submitErr: &BackendRejection{Message: "not accepted"}}
	s := newTestSession(backend)
	advanceToUPI(t, s)
	if err := s.EnterUPIID("payer@bank"); err != nil {
		t.Fatalf("EnterUPIID: %v", err)
	}

	msg, err := s.SubmitTransactionRef(context.Background(), "TXN1")
	if err != nil {
		t.Fatalf("SubmitTransactionRef: %v", err)
	}
	if msg != "Submission failed. Please try again." {
		t.Errorf("unexpected message %q", msg)
	}
	d := s.Draft()
	if d.Step != StepUPI {
		t.Errorf("expected upi step kept, got %s", d.Step)
	}
	if d.UPI.Submitting {
		t.Error("submitting flag should be cleared for retry")
	}
}

func TestSubmitTransactionRefTransportFailure(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1", submitErr: &TransportError{Err: errors.New("connection refused")}}
	s := newTestSession(backend)
	advanceToUPI(t, s)
	if err := s.EnterUPIID("payer@bank"); err != nil {
		t.Fatalf("EnterUPIID: %v", err)
	}

	msg, err := s.SubmitTransactionRef(context.Background(), "TXN1")
	if err != nil {
		t.Fatalf("SubmitTransactionRef: %v", err)
	}
	if msg != "Server error. Please try again later." {
		t.Errorf("unexpected message %q", msg)
	}
	if got := s.Draft().Step; got != StepUPI {
		t.Errorf("expected upi step kept, got %s", got)
	}
}

func TestEmptyBookingIdentifierIsRejection(t *testing.T) {
	backend := &fakeBackend{bookingID: ""}
	s := newTestSession(backend)
	advanceToPayment(t, s)

	err := s.CompleteBooking(context.Background())
	var rejection *BackendRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected backend rejection, got %v", err)
	}
	d := s.Draft()
	if d.Step != StepPayment {
		t.Errorf("step should not advance, got %s", d.Step)
	}
	if d.BookingID != "" {
		t.Errorf("no booking id should be stored, got %q", d.BookingID)
	}
}

func TestCreateBookingFailureKeepsDraft(t *testing.T) {
	backend := &fakeBackend{createErr: &TransportError{Err: errors.New("timeout")}}
	s := newTestSession(backend)
	advanceToPayment(t, s)

	err := s.CompleteBooking(context.Background())
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	d := s.Draft()
	if d.Step != StepPayment {
		t.Errorf("step should not advance, got %s", d.Step)
	}
	if d.SlotID != "c1" || d.CustomVehicleNumber != "KA01AB1234" {
		t.Error("draft fields should survive the failure")
	}
}

func TestCreateBookingSingleFlight(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1", createGate: make(chan struct{})}
	s := newTestSession(backend)
	advanceToPayment(t, s)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.CompleteBooking(context.Background())
	}()

	// wait until the first request is inside the backend call
	for i := 0; backend.createCalls == 0 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}

	if err := s.CompleteBooking(context.Background()); !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("expected in-flight guard, got %v", err)
	}

	close(backend.createGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first CompleteBooking: %v", err)
	}
	if got := s.Draft().Step; got != StepUPI {
		t.Errorf("expected upi step, got %s", got)
	}
	if backend.createCalls != 1 {
		t.Errorf("expected one creation call, got %d", backend.createCalls)
	}
}

func TestStaleCreateResponseDroppedAfterReset(t *testing.T) {
	backend := &fakeBackend{bookingID: "BKSTALE", createGate: make(chan struct{})}
	s := newTestSession(backend)
	advanceToPayment(t, s)

	done := make(chan error, 1)
	go func() {
		done <- s.CompleteBooking(context.Background())
	}()
	for i := 0; backend.createCalls == 0 && i < 100; i++ {
		time.Sleep(time.Millisecond)
	}

	s.Reset()
	close(backend.createGate)

	if err := <-done; !errors.Is(err, ErrSessionReset) {
		t.Fatalf("expected session-reset error, got %v", err)
	}
	d := s.Draft()
	if d.Step != StepVehicleType {
		t.Errorf("fresh draft should be untouched, got step %s", d.Step)
	}
	if d.BookingID != "" {
		t.Errorf("stale booking id must not land in the new draft, got %q", d.BookingID)
	}

	// the new draft is not blocked by the abandoned request
	advanceToPayment(t, s)
	if err := s.CompleteBooking(context.Background()); err != nil {
		t.Fatalf("CompleteBooking after reset: %v", err)
	}
}

func TestResetRestoresOpeningState(t *testing.T) {
	backend := &fakeBackend{bookingID: "BK1"}
	s := newTestSession(backend)
	advanceToUPI(t, s)

	s.Reset()
	d := s.Draft()
	if d.Step != StepVehicleType {
		t.Errorf("expected vehicle-type step, got %s", d.Step)
	}
	if d.VehicleType != "" || d.SlotID != "" || d.BookingID != "" {
		t.Error("selections should be discarded")
	}
	if d.UPI != (UPIState{}) {
		t.Errorf("upi sub-state should be cleared, got %+v", d.UPI)
	}
}

func TestTotalCostZeroWithoutSlot(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	total, err := s.TotalCost(context.Background())
	if err != nil {
		t.Fatalf("TotalCost: %v", err)
	}
	if total != 0 {
		t.Errorf("expected 0 without a slot, got %d", total)
	}
}

func TestChoosePaymentMethodOnlyUPI(t *testing.T) {
	s := newTestSession(&fakeBackend{bookingID: "BK1"})
	advanceToPayment(t, s)

	err := s.ChoosePaymentMethod("card")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetDurationValidation(t *testing.T) {
	s := newTestSession(&fakeBackend{})
	advanceToDetails(t, s)

	if err := s.SetDuration(7); err == nil {
		t.Error("7 hours is not a bookable duration")
	}
	if err := s.SetDuration(24); err != nil {
		t.Errorf("SetDuration(24): %v", err)
	}
	if got := s.Draft().DurationHours; got != 24 {
		t.Errorf("expected duration 24, got %d", got)
	}
}
