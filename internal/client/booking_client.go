// Package client implements the wizard's booking backend collaborator over
// HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"parkslot/internal/entities"
	"parkslot/internal/wizard"
)

type BookingClient struct {
	baseURL string
	http    *http.Client
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateBooking posts the booking request and returns the new identifier.
// A non-2xx answer is a rejection; so is a 2xx answer carrying no
// identifier, since the wizard must never reach success without one.
func (c *BookingClient) CreateBooking(ctx context.Context, req entities.BookingRequest) (string, error) {
	resp, err := c.post(ctx, "/api/bookings", req)
	if err != nil {
		return "", &wizard.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &wizard.BackendRejection{Message: fmt.Sprintf("booking backend returned status %d", resp.StatusCode)}
	}
	var out entities.BookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &wizard.TransportError{Err: err}
	}
	if out.BookingID == "" {
		return "", &wizard.BackendRejection{Message: "booking backend returned no identifier"}
	}
	return out.BookingID, nil
}

// SubmitUPITransaction reports the user-supplied transaction reference.
// Any response that decodes to {success:false} is a rejection, anything
// that fails to decode is a transport error.
func (c *BookingClient) SubmitUPITransaction(ctx context.Context, bookingID, txnRef string) error {
	body := entities.UPITxnRequest{PaymentID: bookingID, UPITxnID: txnRef}
	resp, err := c.post(ctx, "/api/submit-upi-txn/", body)
	if err != nil {
		return &wizard.TransportError{Err: err}
	}
	defer resp.Body.Close()

	var out entities.UPITxnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &wizard.TransportError{Err: err}
	}
	if !out.Success {
		return &wizard.BackendRejection{Message: "transaction submission was not accepted"}
	}
	return nil
}

func (c *BookingClient) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}
