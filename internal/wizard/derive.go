package wizard

import "parkslot/internal/entities"

// AvailableSlots filters the catalog down to the slots a vehicle type can
// book: matching type and currently available. Recomputed on demand, never
// cached.
func AvailableSlots(loc *entities.ParkingLocation, vehicleType string) []entities.Slot {
	var slots []entities.Slot
	for _, slot := range loc.Slots {
		if slot.VehicleType == vehicleType && slot.Status == entities.SlotStatusAvailable {
			slots = append(slots, slot)
		}
	}
	return slots
}

// TotalCost is the slot's hourly price times the booked duration.
func TotalCost(slot entities.Slot, durationHours int) int {
	return slot.PricePerHour * durationHours
}

func findSlot(loc *entities.ParkingLocation, slotID string) (entities.Slot, bool) {
	for _, slot := range loc.Slots {
		if slot.ID == slotID {
			return slot, true
		}
	}
	return entities.Slot{}, false
}
