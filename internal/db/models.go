package db

import (
	"database/sql"
	"time"
)

type ParkingLocation struct {
	ID   string
	Name string
}

type Slot struct {
	ID           string
	LocationID   string
	SlotNumber   string
	VehicleType  string
	Status       string
	PricePerHour int
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

type Vehicle struct {
	ID     string
	UserID string
	Number string
	Type   string
	Model  sql.NullString
}

type Booking struct {
	ID            int
	Code          string
	UserID        sql.NullString
	SlotID        string
	VehicleNumber string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Payment struct {
	ID        int
	BookingID int
	Amount    int
	UPITxnID  sql.NullString
	Status    string
	CreatedAt time.Time
}
