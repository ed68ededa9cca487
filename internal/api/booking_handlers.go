package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"parkslot/internal/entities"
	apierrors "parkslot/internal/errors"
	"parkslot/internal/service"
	"parkslot/internal/upi"

	"github.com/gorilla/mux"
)

// BookingHandler is the server side of the booking contracts the wizard's
// HTTP client talks to.
type BookingHandler struct {
	Service  service.BookingService
	PayeeVPA string
}

func NewBookingHandler(svc service.BookingService, payeeVPA string) *BookingHandler {
	return &BookingHandler{Service: svc, PayeeVPA: payeeVPA}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	code, err := h.Service.CreateBooking(req)
	if err != nil {
		apierrors.ErrConflict(err.Error()).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entities.BookingResponse{
		BookingID: code,
		Message:   "Booking confirmed.",
	})
}

// SubmitUPITxn records a reported transaction reference. The answer is
// always well-formed {success: bool}; an unknown payment id is a negative
// answer, not an error.
func (h *BookingHandler) SubmitUPITxn(w http.ResponseWriter, r *http.Request) {
	var req entities.UPITxnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ErrBadRequest("Invalid request").Write(w)
		return
	}
	ok, err := h.Service.SubmitUPITransaction(req.PaymentID, req.UPITxnID)
	if err != nil {
		http.Error(w, "Could not record transaction", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entities.UPITxnResponse{Success: ok})
}

// UPIQRImage serves the QR PNG for an amount.
func (h *BookingHandler) UPIQRImage(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.Atoi(mux.Vars(r)["amount"])
	if err != nil || amount < 0 {
		apierrors.ErrBadRequest("Invalid amount").Write(w)
		return
	}
	png, err := upi.QRImage(amount, h.PayeeVPA)
	if err != nil {
		http.Error(w, "Could not render QR", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
