package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/kafka"
	"github.com/pennmobile/gsr-booking/internal/provider"
	"github.com/pennmobile/gsr-booking/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type BookingUseCase interface {
	BookRooms(ctx context.Context, groupID int64, username string, reqs []domain.BookingRequest) ([]domain.RoomBookingResult, error)
	Cancel(ctx context.Context, username, bookingID string) error
	ListUpcoming(ctx context.Context, username string, spanDays int) ([]domain.ReservationDetail, error)
	SweepReminders(ctx context.Context) ([]domain.Reservation, error)
}

// Authority answers group role questions; membership itself lives with
// the groups service.
type Authority interface {
	HasAdmin(ctx context.Context, groupID int64, username string) (bool, error)
}

// KindResolver maps a building lid to the provider that owns it.
type KindResolver interface {
	ResolveKind(ctx context.Context, lid string) (domain.ProviderKind, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	reservations       repository.ReservationRepository
	groups             Authority
	providers          *provider.Set
	resolver           KindResolver
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	fanOutLimit        int
	reminderLead       time.Duration
	logger             *logrus.Logger
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	reservations repository.ReservationRepository,
	groups Authority,
	providers *provider.Set,
	resolver KindResolver,
	producer Producer,
	bookingTopic string,
	fanOutLimit int,
	reminderLead time.Duration,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		reservations: reservations,
		groups:       groups,
		providers:    providers,
		resolver:     resolver,
		producer:     producer,
		bookingTopic: bookingTopic,
		fanOutLimit:  fanOutLimit,
		reminderLead: reminderLead,
		logger:       logger,
		now:          time.Now,
	}
	if service.fanOutLimit <= 0 {
		service.fanOutLimit = 4
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BookRooms fans out one upstream call per requested room after a single
// up-front admin check. Rooms are booked independently: a failure on one
// never rolls back or retries another, and the caller gets the per-room
// outcome list in input order.
func (s *BookingService) BookRooms(ctx context.Context, groupID int64, username string, reqs []domain.BookingRequest) ([]domain.RoomBookingResult, error) {
	isAdmin, err := s.groups.HasAdmin(ctx, groupID, username)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, domain.ErrForbidden
	}

	results := make([]domain.RoomBookingResult, len(reqs))
	g := new(errgroup.Group)
	g.SetLimit(s.fanOutLimit)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = domain.RoomBookingResult{
				Room:    req,
				Outcome: s.bookOne(ctx, groupID, username, req),
			}
			return nil
		})
	}
	// Outcomes are values; the group never carries errors.
	_ = g.Wait()

	return results, nil
}

func (s *BookingService) bookOne(ctx context.Context, groupID int64, username string, req domain.BookingRequest) domain.BookingOutcome {
	kind, err := s.resolver.ResolveKind(ctx, req.Lid)
	if err != nil {
		return domain.Failed("unknown location " + req.Lid)
	}
	p, ok := s.providers.ForKind(kind)
	if !ok {
		return domain.Failed("no provider for kind " + string(kind))
	}

	outcome := p.Book(ctx, username, req)
	if !outcome.Confirmed {
		s.logger.WithFields(logrus.Fields{
			"room":   req.RoomID,
			"lid":    req.Lid,
			"kind":   kind,
			"reason": outcome.Reason,
		}).Info("room booking failed")
		return outcome
	}

	reservation := &domain.Reservation{
		BookingID: outcome.BookingID,
		Kind:      kind,
		RoomID:    req.RoomID,
		RoomName:  req.RoomName,
		Start:     req.Start,
		End:       req.End,
		Owner:     username,
		GroupID:   groupID,
	}
	if err := s.reservations.Create(ctx, reservation); err != nil {
		// The upstream booking exists but the local record does not.
		// There is no two-phase commit with the provider; log and keep
		// the confirmed outcome. No event either: consumers would chase
		// a booking the registry cannot resolve.
		s.logger.WithFields(logrus.Fields{
			"booking_id": outcome.BookingID,
			"kind":       kind,
		}).WithError(err).Warn("confirmed upstream booking could not be persisted")
		return outcome
	}

	s.publish(ctx, "gsr_booked", reservation)
	return outcome
}

// Cancel flips is_cancelled only after the provider confirms; a failed
// upstream cancel leaves local state untouched. Already-cancelled rows
// are rejected before any upstream call.
func (s *BookingService) Cancel(ctx context.Context, username, bookingID string) error {
	reservation, err := s.reservations.GetByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if reservation.IsCancelled {
		return domain.ErrNotFound
	}
	if reservation.Owner != username {
		return domain.ErrForbidden
	}

	p, ok := s.providers.ForKind(reservation.Kind)
	if !ok {
		return domain.ErrNotFound
	}
	if err := p.Cancel(ctx, username, bookingID); err != nil {
		return err
	}

	if err := s.reservations.MarkCancelled(ctx, reservation.Kind, bookingID); err != nil {
		s.logger.WithField("booking_id", bookingID).WithError(err).
			Warn("upstream cancel succeeded but local flag update failed")
		return err
	}

	s.publish(ctx, "gsr_cancelled", reservation)
	return nil
}

// ListUpcoming joins non-cancelled rows against live provider data on
// every call. Rows the provider can no longer resolve fall back to the
// locally recorded details.
func (s *BookingService) ListUpcoming(ctx context.Context, username string, spanDays int) ([]domain.ReservationDetail, error) {
	cutoff := s.now().Add(time.Duration(spanDays) * 24 * time.Hour)
	rows, err := s.reservations.ListUpcoming(ctx, username, cutoff)
	if err != nil {
		return nil, err
	}

	idsByKind := make(map[domain.ProviderKind][]string)
	for _, row := range rows {
		idsByKind[row.Kind] = append(idsByKind[row.Kind], row.BookingID)
	}

	live := make(map[string]domain.ReservationDetail)
	for kind, ids := range idsByKind {
		p, ok := s.providers.ForKind(kind)
		if !ok {
			continue
		}
		details, err := p.Reservations(ctx, username, ids)
		if err != nil {
			s.logger.WithField("kind", kind).WithError(err).
				Warn("live reservation lookup failed, falling back to local records")
			continue
		}
		for _, d := range details {
			live[d.BookingID] = d
		}
	}

	out := make([]domain.ReservationDetail, 0, len(rows))
	for _, row := range rows {
		if d, ok := live[row.BookingID]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, domain.ReservationDetail{
			BookingID: row.BookingID,
			Kind:      row.Kind,
			RoomID:    row.RoomID,
			RoomName:  row.RoomName,
			Start:     row.Start,
			End:       row.End,
		})
	}
	return out, nil
}

// SweepReminders publishes a reminder event for every reservation
// starting within the lead window that has not been reminded yet.
func (s *BookingService) SweepReminders(ctx context.Context) ([]domain.Reservation, error) {
	now := s.now()
	due, err := s.reservations.DueReminders(ctx, now, now.Add(s.reminderLead))
	if err != nil {
		return nil, err
	}

	for i := range due {
		r := &due[i]
		if err := s.reservations.MarkReminderSent(ctx, r.Kind, r.BookingID); err != nil {
			s.logger.WithField("booking_id", r.BookingID).WithError(err).Warn("mark reminder sent failed")
			continue
		}
		s.publishTo(ctx, s.notificationsTopic, "gsr_reminder", r)
	}
	return due, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, r *domain.Reservation) {
	s.publishTo(ctx, s.bookingTopic, eventType, r)
	if s.notificationsTopic != "" && s.notificationsTopic != s.bookingTopic {
		s.publishTo(ctx, s.notificationsTopic, eventType, r)
	}
}

func (s *BookingService) publishTo(ctx context.Context, topic, eventType string, r *domain.Reservation) {
	if s.producer == nil || topic == "" {
		return
	}
	event := kafka.BookingEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		BookingID: r.BookingID,
		Kind:      string(r.Kind),
		RoomID:    r.RoomID,
		RoomName:  r.RoomName,
		Username:  r.Owner,
		GroupID:   r.GroupID,
		Start:     r.Start,
		End:       r.End,
	}
	if err := s.producer.Publish(ctx, topic, r.BookingID, event); err != nil {
		s.logger.WithField("booking_id", r.BookingID).WithError(err).
			Warnf("failed to publish %s event", eventType)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
