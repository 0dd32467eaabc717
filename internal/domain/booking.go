package domain

import "time"

// BookingRequest is one desired reservation within a group booking call.
type BookingRequest struct {
	Lid      string    `json:"lid"`
	RoomID   string    `json:"room"`
	RoomName string    `json:"room_name"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// BookingOutcome is the per-room result of one upstream booking attempt.
// A confirmed outcome always carries the provider-issued booking id; a
// failed one carries the upstream's error text verbatim. It is a value,
// never an error: callers must handle both arms.
type BookingOutcome struct {
	Confirmed bool   `json:"confirmed"`
	BookingID string `json:"booking_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func Confirmed(bookingID string) BookingOutcome {
	return BookingOutcome{Confirmed: true, BookingID: bookingID}
}

func Failed(reason string) BookingOutcome {
	return BookingOutcome{Reason: reason}
}

type RoomBookingResult struct {
	Room    BookingRequest `json:"room"`
	Outcome BookingOutcome `json:"outcome"`
}

// Reservation is the durable local record of a confirmed booking. The
// registry key is (Kind, BookingID); ids are only unique within one
// provider's namespace. is_cancelled moves false to true, never back.
type Reservation struct {
	BookingID    string
	Kind         ProviderKind
	RoomID       string
	RoomName     string
	Start        time.Time
	End          time.Time
	Owner        string
	GroupID      int64
	IsCancelled  bool
	ReminderSent bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReservationDetail is a reservation joined with live provider data at
// read time. Local storage tracks identity and the cancellation flag only.
type ReservationDetail struct {
	BookingID string       `json:"booking_id"`
	Kind      ProviderKind `json:"kind"`
	RoomID    string       `json:"room_id"`
	RoomName  string       `json:"room_name"`
	Start     time.Time    `json:"start"`
	End       time.Time    `json:"end"`
}
