package provider

import (
	"context"

	"github.com/pennmobile/gsr-booking/internal/domain"
)

// RoomProvider adapts one upstream reservation system to the common
// booking vocabulary. Implementations perform exactly one upstream call
// per operation and never retry; retries are the caller's decision.
type RoomProvider interface {
	Kind() domain.ProviderKind

	ListBuildings(ctx context.Context) ([]domain.Building, error)

	// ListAvailability returns rooms for a building with slots whose
	// start is still in the future relative to the call.
	ListAvailability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error)

	// Book returns the outcome as a value: upstream errors and malformed
	// responses become Failed outcomes carrying the upstream text.
	Book(ctx context.Context, username string, req domain.BookingRequest) domain.BookingOutcome

	// Cancel surfaces whatever the provider reports. Upstream cancel is
	// not guaranteed idempotent; callers must gate repeats themselves.
	Cancel(ctx context.Context, username, bookingID string) error

	// Reservations resolves booking ids to live room/time details.
	Reservations(ctx context.Context, username string, bookingIDs []string) ([]domain.ReservationDetail, error)
}

// Set holds one adapter per provider kind, constructed once at process
// start and passed down. A closed set: only two providers exist.
type Set struct {
	providers map[domain.ProviderKind]RoomProvider
}

func NewSet(providers ...RoomProvider) *Set {
	s := &Set{providers: make(map[domain.ProviderKind]RoomProvider, len(providers))}
	for _, p := range providers {
		s.providers[p.Kind()] = p
	}
	return s
}

func (s *Set) ForKind(kind domain.ProviderKind) (RoomProvider, bool) {
	p, ok := s.providers[kind]
	return p, ok
}

func (s *Set) All() []RoomProvider {
	out := make([]RoomProvider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	return out
}
