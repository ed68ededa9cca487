package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"parkslot/internal/auth"
	"parkslot/internal/entities"
	apierrors "parkslot/internal/errors"
	"parkslot/internal/service"
	"parkslot/internal/wizard"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const msgBookingFailed = "Booking failed, please try again."

// WizardHandler owns the open wizard sessions and translates HTTP events
// into state-machine transitions. Sessions live in memory; closing one
// resets its draft, so a late backend response cannot touch a new draft.
type WizardHandler struct {
	catalog  service.CatalogService
	identity service.IdentityService
	backend  wizard.Backend
	payeeVPA string

	mu       sync.Mutex
	sessions map[string]*wizard.Session
}

func NewWizardHandler(catalog service.CatalogService, identity service.IdentityService, backend wizard.Backend, payeeVPA string) *WizardHandler {
	return &WizardHandler{
		catalog:  catalog,
		identity: identity,
		backend:  backend,
		payeeVPA: payeeVPA,
		sessions: make(map[string]*wizard.Session),
	}
}

// sessionIdentity binds the user who opened the wizard to the session.
// Anonymous sessions resolve to an empty user with no vehicles.
type sessionIdentity struct {
	userID   string
	identity service.IdentityService
}

func (si sessionIdentity) CurrentUser(ctx context.Context) (*entities.User, error) {
	if si.userID == "" {
		return &entities.User{}, nil
	}
	return si.identity.CurrentUser(ctx, si.userID)
}

// Open starts a wizard session with a fresh draft.
func (h *WizardHandler) Open(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	sess := wizard.NewSession(h.catalog, sessionIdentity{userID: auth.UserID(r), identity: h.identity}, h.backend, h.payeeVPA)

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	h.writeState(w, r, id, sess, "")
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, r, id, sess, "")
}

// Close discards the session. The draft is reset first so any in-flight
// backend response is detected as stale and dropped.
func (h *WizardHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.mu.Lock()
	sess := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if sess == nil {
		apierrors.ErrNotFound("wizard session not found").Write(w)
		return
	}
	sess.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) SelectVehicleType(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req VehicleTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	if err := sess.SelectVehicleType(r.Context(), req.VehicleType); err != nil {
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, "")
}

func (h *WizardHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	if err := sess.SelectSlot(r.Context(), req.SlotID); err != nil {
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, "")
}

func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Back(); err != nil {
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, "")
}

// SubmitDetails records vehicle, schedule and duration, then gates the
// details step. A corrected start time comes back as a notice, not an
// error; a failed zero-cost booking keeps the step and reports a notice.
func (h *WizardHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req DetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}

	if err := sess.SetVehicle(r.Context(), req.VehicleID, req.VehicleNumber); err != nil {
		writeWizardError(w, err)
		return
	}

	draft := sess.Draft()
	if req.Date == "" {
		req.Date = draft.Date
	}
	if req.Time == "" {
		req.Time = draft.Time
	}
	notice, err := sess.SetSchedule(req.Date, req.Time)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	if req.DurationHours != 0 {
		if err := sess.SetDuration(req.DurationHours); err != nil {
			writeWizardError(w, err)
			return
		}
	}

	if err := sess.SubmitDetails(r.Context()); err != nil {
		if isBackendFailure(err) {
			log.Printf("Booking creation failed for wizard %s: %v", id, err)
			h.writeState(w, r, id, sess, msgBookingFailed)
			return
		}
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, notice)
}

// CompleteBooking acts on the payment step: choose the method and finish.
func (h *WizardHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	if req.PaymentMethod != "" {
		if err := sess.ChoosePaymentMethod(req.PaymentMethod); err != nil {
			writeWizardError(w, err)
			return
		}
	}
	if err := sess.CompleteBooking(r.Context()); err != nil {
		if isBackendFailure(err) {
			log.Printf("Booking creation failed for wizard %s: %v", id, err)
			h.writeState(w, r, id, sess, msgBookingFailed)
			return
		}
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, "")
}

func (h *WizardHandler) EnterUPIID(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UPIIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	if err := sess.EnterUPIID(req.UPIID); err != nil {
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, "")
}

func (h *WizardHandler) SubmitTxnRef(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TxnRefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	msg, err := sess.SubmitTransactionRef(r.Context(), req.TxnRef)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	h.writeState(w, r, id, sess, msg)
}

func (h *WizardHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, string, bool) {
	id := mux.Vars(r)["id"]
	h.mu.Lock()
	sess := h.sessions[id]
	h.mu.Unlock()
	if sess == nil {
		apierrors.ErrNotFound("wizard session not found").Write(w)
		return nil, "", false
	}
	return sess, id, true
}

func (h *WizardHandler) writeState(w http.ResponseWriter, r *http.Request, id string, sess *wizard.Session, notice string) {
	d := sess.Draft()
	resp := WizardStateResponse{
		SessionID:           id,
		Step:                d.Step.String(),
		VehicleType:         d.VehicleType,
		SlotID:              d.SlotID,
		VehicleID:           d.VehicleID,
		CustomVehicleNumber: d.CustomVehicleNumber,
		Date:                d.Date,
		Time:                d.Time,
		DurationHours:       d.DurationHours,
		PaymentMethod:       d.PaymentMethod,
		BookingID:           d.BookingID,
		Notice:              notice,
	}

	if total, err := sess.TotalCost(r.Context()); err == nil {
		resp.TotalCost = total
	} else {
		log.Printf("Could not derive total for wizard %s: %v", id, err)
	}

	switch d.Step {
	case wizard.StepSlotSelection:
		slots, err := sess.AvailableSlots(r.Context())
		if err != nil {
			log.Printf("Could not derive available slots for wizard %s: %v", id, err)
		}
		resp.AvailableSlots = slots
	case wizard.StepUPI, wizard.StepSuccess:
		resp.UPI = &UPIStateResponse{
			UPIID:             d.UPI.ID,
			InstructionsShown: d.UPI.InstructionsShown,
			Submitting:        d.UPI.Submitting,
			ResultMessage:     d.UPI.ResultMessage,
		}
		if d.Step == wizard.StepUPI && d.UPI.InstructionsShown {
			if ins, err := sess.PaymentInstructions(r.Context()); err == nil {
				resp.Instructions = ins
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func isBackendFailure(err error) bool {
	var rejection *wizard.BackendRejection
	var transport *wizard.TransportError
	return errors.As(err, &rejection) || errors.As(err, &transport)
}

func writeWizardError(w http.ResponseWriter, err error) {
	var validation *wizard.ValidationError
	switch {
	case errors.As(err, &validation):
		apierrors.ErrBadRequest(validation.Message).Write(w)
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrRequestInFlight),
		errors.Is(err, wizard.ErrSessionReset):
		apierrors.ErrConflict(err.Error()).Write(w)
	case isBackendFailure(err):
		apierrors.NewHTTPError(http.StatusBadGateway, msgBookingFailed).Write(w)
	default:
		apierrors.NewHTTPError(http.StatusInternalServerError, "internal error").Write(w)
	}
}
