package service

import (
	"fmt"
	"log"

	"parkslot/internal/entities"
)

type SenderService struct {
}

func NewSenderService() *SenderService {
	return &SenderService{}
}

// SendBookingEmail emails the booking confirmation. Sending is async and
// failures are only logged; a booking never fails because of a mail.
func (s *SenderService) SendBookingEmail(data entities.BookingNotificationData) {
	if data.UserEmail == "" {
		return
	}

	subject := fmt.Sprintf("Your parking slot is booked - Code: %s", data.BookingCode)
	plainTextBody := fmt.Sprintf(
		"Hello %s,\n\nYour parking slot has been booked.\n\n"+
			"Booking Details:\n"+
			"Booking Code: %s\n"+
			"Slot: %s\n"+
			"Vehicle: %s\n"+
			"From: %s\n"+
			"To: %s\n"+
			"Amount: INR %d\n\n"+
			"Thank you for parking with us.",
		data.UserName, data.BookingCode, data.SlotNumber, data.VehicleNumber,
		data.StartTimeFormatted, data.EndTimeFormatted, data.Amount,
	)

	go func(toEmail, userName, subject, plainBody string) {
		if err := SendEmailWithSendGrid(toEmail, userName, subject, plainBody); err != nil {
			log.Printf("Async email for booking %s failed: %v", data.BookingCode, err)
		}
	}(data.UserEmail, data.UserName, subject, plainTextBody)
}

// SendBookingSMS texts a short confirmation.
func (s *SenderService) SendBookingSMS(data entities.BookingNotificationData) {
	if data.UserPhone == "" {
		return
	}

	smsMessage := fmt.Sprintf("Parking booking %s confirmed!\nSlot %s from %s.\nMore details in your email.",
		data.BookingCode, data.SlotNumber, data.StartTimeFormatted)

	go func(toNumber, body string) {
		if err := SendSMS(toNumber, body); err != nil {
			log.Printf("Booking %s was created, but the confirmation SMS to %s failed: %v", data.BookingCode, toNumber, err)
		}
	}(data.UserPhone, smsMessage)
}
