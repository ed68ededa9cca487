package upi

import (
	"bytes"
	"testing"
)

func TestDeepLink(t *testing.T) {
	got := DeepLink(100, "merchant@upi")
	want := "upi://pay?pa=merchant@upi&pn=Parking+Payment&am=100&cu=INR"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewInstructions(t *testing.T) {
	ins := NewInstructions(240, "merchant@upi")
	if ins.Amount != 240 {
		t.Errorf("amount: got %d", ins.Amount)
	}
	if ins.QRPath != "/api/upi_qr_image/240/" {
		t.Errorf("qr path: got %q", ins.QRPath)
	}
	if ins.DeepLink != DeepLink(240, "merchant@upi") {
		t.Errorf("deep link: got %q", ins.DeepLink)
	}
}

func TestQRImageIsPNG(t *testing.T) {
	png, err := QRImage(100, "merchant@upi")
	if err != nil {
		t.Fatalf("QRImage: %v", err)
	}
	magic := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(png, magic) {
		t.Errorf("expected PNG output, got prefix %x", png[:4])
	}
}
