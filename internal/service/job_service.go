package service

import (
	"fmt"
	"log"
	"time"

	"parkslot/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// CompleteFinishedBookings marks bookings past their end time as completed
// and frees their slots.
func (s *JobService) CompleteFinishedBookings() error {
	log.Println("Cron Job: Checking for bookings to mark as 'completed'...")

	bookingIDs, err := s.Repo.GetUpcomingBookingIDsPastEndTime()
	if err != nil {
		return fmt.Errorf("cron job: failed to get bookings past end time: %w", err)
	}

	if len(bookingIDs) == 0 {
		log.Println("Cron Job: No upcoming bookings found past their end time.")
		return nil
	}

	log.Printf("Cron Job: Found %d bookings to mark as 'completed'. IDs: %v", len(bookingIDs), bookingIDs)

	if err := s.Repo.CompleteBookings(bookingIDs); err != nil {
		return fmt.Errorf("cron job: failed to complete bookings: %w", err)
	}
	return nil
}

// PurgeStalePendingPayments drops pending payments older than the given age
// that never got a transaction reference.
func (s *JobService) PurgeStalePendingPayments(maxAge time.Duration) (int64, error) {
	return s.Repo.DeleteStalePendingPayments(time.Now().UTC().Add(-maxAge))
}
