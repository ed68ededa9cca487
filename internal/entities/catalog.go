package entities

const (
	VehicleTypeCar  = "car"
	VehicleTypeBike = "bike"

	SlotStatusAvailable = "available"
	SlotStatusOccupied  = "occupied"
)

type Slot struct {
	ID           string `json:"id"`
	SlotNumber   string `json:"slot_number"`
	VehicleType  string `json:"vehicle_type"`
	Status       string `json:"status"`
	PricePerHour int    `json:"price_per_hour"`
}

type ParkingLocation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	VehicleTypes []string `json:"vehicle_types"`
	Slots        []Slot   `json:"slots"`
}

type Vehicle struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Type   string `json:"type"`
	Model  string `json:"model,omitempty"`
}

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Vehicles []Vehicle `json:"vehicles"`
}
