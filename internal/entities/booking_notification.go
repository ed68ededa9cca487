package entities

type BookingNotificationData struct {
	UserName           string
	UserEmail          string
	UserPhone          string
	BookingCode        string
	SlotNumber         string
	VehicleNumber      string
	StartTimeFormatted string
	EndTimeFormatted   string
	Amount             int
}
