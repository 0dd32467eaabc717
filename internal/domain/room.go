package domain

import "time"

type ProviderKind string

const (
	KindLibCal  ProviderKind = "LIBCAL"
	KindWharton ProviderKind = "WHARTON"
)

// Building is a bookable location owned by exactly one provider.
type Building struct {
	Lid  string       `json:"lid"`
	Name string       `json:"name"`
	Kind ProviderKind `json:"kind"`
}

type TimeSlot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

type RoomAvailability struct {
	RoomID       string     `json:"room_id"`
	Name         string     `json:"name"`
	Availability []TimeSlot `json:"availability"`
}
