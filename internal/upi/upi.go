// Package upi derives payment instructions for UPI: the pay deep link and
// the QR image a user scans to pay. Both are pure functions of the amount
// and the payee handle; no payment verification happens here.
package upi

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// PayeeLabel is the pn= merchant label inside the deep link. The "+" is
	// the link's own space encoding.
	PayeeLabel = "Parking+Payment"

	Currency = "INR"
)

type Instructions struct {
	Amount   int    `json:"amount"`
	PayeeVPA string `json:"payee_vpa"`
	DeepLink string `json:"deep_link"`
	QRPath   string `json:"qr_path"`
}

// DeepLink builds the upi://pay URI for an amount owed to the payee handle.
func DeepLink(amount int, payeeVPA string) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%d&cu=%s", payeeVPA, PayeeLabel, amount, Currency)
}

// QRPath is the image resource for an amount, served by the booking API.
func QRPath(amount int) string {
	return fmt.Sprintf("/api/upi_qr_image/%d/", amount)
}

func NewInstructions(amount int, payeeVPA string) Instructions {
	return Instructions{
		Amount:   amount,
		PayeeVPA: payeeVPA,
		DeepLink: DeepLink(amount, payeeVPA),
		QRPath:   QRPath(amount),
	}
}

// QRImage renders the deep link for an amount as a PNG.
func QRImage(amount int, payeeVPA string) ([]byte, error) {
	png, err := qrcode.Encode(DeepLink(amount, payeeVPA), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encoding UPI QR: %w", err)
	}
	return png, nil
}
