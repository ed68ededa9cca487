package wizard

import (
	"time"

	"parkslot/internal/utils"
)

// Step is the wizard's position in the booking flow.
type Step int

const (
	StepVehicleType Step = iota
	StepSlotSelection
	StepDetails
	StepPayment
	StepUPI
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepVehicleType:
		return "vehicle-type"
	case StepSlotSelection:
		return "slot-selection"
	case StepDetails:
		return "details"
	case StepPayment:
		return "payment"
	case StepUPI:
		return "upi"
	case StepSuccess:
		return "success"
	}
	return "unknown"
}

const (
	PaymentMethodUPI = "upi"

	defaultDurationHours = 2
)

type UPIState struct {
	ID                string
	TxnRef            string
	InstructionsShown bool
	Submitting        bool
	ResultMessage     string
}

// Draft is the booking-in-progress state accumulated across wizard steps.
// It mutates only through Session methods; backward edges clear the fields
// owned by the steps they skip so downstream data is never stale.
type Draft struct {
	Step                Step
	VehicleType         string
	SlotID              string
	VehicleID           string
	CustomVehicleNumber string
	Date                string
	Time                string
	DurationHours       int
	PaymentMethod       string
	BookingID           string
	UPI                 UPIState
}

func newDraft(now time.Time) Draft {
	return Draft{
		Step:          StepVehicleType,
		Date:          now.Format(utils.DateLayout),
		Time:          utils.NextAvailableQuarterHour(now).Format(utils.TimeLayout),
		DurationHours: defaultDurationHours,
		PaymentMethod: PaymentMethodUPI,
	}
}
