package service

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"parkslot/internal/db"
	"parkslot/internal/entities"
	"parkslot/internal/repository"
	"parkslot/internal/utils"
)

const (
	statusUpcoming = "upcoming"
)

// BookingService is the server side of the booking contracts: creation and
// UPI transaction-reference recording. It never verifies that a payment
// happened; references are stored for out-of-band verification.
type BookingService interface {
	CreateBooking(req entities.BookingRequest) (string, error)
	SubmitUPITransaction(paymentID, txnRef string) (bool, error)
}

type bookingService struct {
	repo   *repository.BookingRepository
	users  repository.UserRepository
	sender *SenderService
}

func NewBookingService(repo *repository.BookingRepository, users repository.UserRepository, sender *SenderService) BookingService {
	return &bookingService{repo: repo, users: users, sender: sender}
}

func (s *bookingService) CreateBooking(req entities.BookingRequest) (string, error) {
	if req.Vehicle == "" {
		return "", fmt.Errorf("vehicle is required")
	}
	if !utils.IsAllowedDuration(req.DurationHours) {
		return "", fmt.Errorf("a duration of %d hours is not offered", req.DurationHours)
	}
	start, err := time.ParseInLocation(utils.DateLayout+" "+utils.TimeLayout, req.Date+" "+req.Time, time.Local)
	if err != nil {
		return "", fmt.Errorf("invalid start date/time: %w", err)
	}

	slot, err := s.repo.GetSlot(req.SlotID)
	if err != nil {
		return "", err
	}
	if slot.Status != entities.SlotStatusAvailable {
		return "", fmt.Errorf("slot %s is not available", slot.SlotNumber)
	}

	code := fmt.Sprintf("%08X", time.Now().UnixNano()%100000000)
	now := time.Now().UTC()
	booking := &db.Booking{
		Code:          code,
		SlotID:        req.SlotID,
		VehicleNumber: req.Vehicle,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(req.DurationHours) * time.Hour),
		Status:        statusUpcoming,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.UserID != "" {
		booking.UserID = sql.NullString{String: req.UserID, Valid: true}
	}

	amount := slot.PricePerHour * req.DurationHours
	if err := s.repo.CreateBooking(booking, amount); err != nil {
		log.Printf("Error creating booking in repository: %v", err)
		return "", err
	}

	s.notify(booking, slot, amount)
	return code, nil
}

func (s *bookingService) SubmitUPITransaction(paymentID, txnRef string) (bool, error) {
	if paymentID == "" || txnRef == "" {
		return false, nil
	}
	return s.repo.RecordUPITransaction(paymentID, txnRef)
}

// notify sends the confirmation email and SMS when the booking belongs to a
// registered user. Failures are logged, never surfaced to the caller.
func (s *bookingService) notify(booking *db.Booking, slot *db.Slot, amount int) {
	if !booking.UserID.Valid {
		return
	}
	user, err := s.users.GetByID(booking.UserID.String)
	if err != nil || user == nil {
		log.Printf("Booking %s created, but could not load user for notification: %v", booking.Code, err)
		return
	}
	data := entities.BookingNotificationData{
		UserName:           user.Name,
		UserEmail:          user.Email,
		UserPhone:          user.Phone,
		BookingCode:        booking.Code,
		SlotNumber:         slot.SlotNumber,
		VehicleNumber:      booking.VehicleNumber,
		StartTimeFormatted: booking.StartTime.Format("02 Jan 2006 15:04"),
		EndTimeFormatted:   booking.EndTime.Format("02 Jan 2006 15:04"),
		Amount:             amount,
	}
	s.sender.SendBookingEmail(data)
	s.sender.SendBookingSMS(data)
}
