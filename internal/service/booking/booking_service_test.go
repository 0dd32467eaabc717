package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/provider"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Reservation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) MarkCancelled(ctx context.Context, kind domain.ProviderKind, bookingID string) error {
	args := m.Called(ctx, kind, bookingID)
	return args.Error(0)
}

func (m *MockReservationRepository) ListUpcoming(ctx context.Context, owner string, cutoff time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, owner, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) DueReminders(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) MarkReminderSent(ctx context.Context, kind domain.ProviderKind, bookingID string) error {
	args := m.Called(ctx, kind, bookingID)
	return args.Error(0)
}

type MockAuthority struct {
	mock.Mock
}

func (m *MockAuthority) HasAdmin(ctx context.Context, groupID int64, username string) (bool, error) {
	args := m.Called(ctx, groupID, username)
	return args.Bool(0), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveKind(ctx context.Context, lid string) (domain.ProviderKind, error) {
	args := m.Called(ctx, lid)
	return args.Get(0).(domain.ProviderKind), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// MockRoomProvider implements provider.RoomProvider for one kind.
type MockRoomProvider struct {
	mock.Mock
	kind domain.ProviderKind
}

func (m *MockRoomProvider) Kind() domain.ProviderKind { return m.kind }

func (m *MockRoomProvider) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Building), args.Error(1)
}

func (m *MockRoomProvider) ListAvailability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error) {
	args := m.Called(ctx, username, lid, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RoomAvailability), args.Error(1)
}

func (m *MockRoomProvider) Book(ctx context.Context, username string, req domain.BookingRequest) domain.BookingOutcome {
	args := m.Called(ctx, username, req)
	return args.Get(0).(domain.BookingOutcome)
}

func (m *MockRoomProvider) Cancel(ctx context.Context, username, bookingID string) error {
	args := m.Called(ctx, username, bookingID)
	return args.Error(0)
}

func (m *MockRoomProvider) Reservations(ctx context.Context, username string, bookingIDs []string) ([]domain.ReservationDetail, error) {
	args := m.Called(ctx, username, bookingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReservationDetail), args.Error(1)
}

var _ provider.RoomProvider = (*MockRoomProvider)(nil)

type fixture struct {
	repo     *MockReservationRepository
	groups   *MockAuthority
	resolver *MockResolver
	producer *MockProducer
	libcal   *MockRoomProvider
	wharton  *MockRoomProvider
	service  *BookingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     &MockReservationRepository{},
		groups:   &MockAuthority{},
		resolver: &MockResolver{},
		producer: &MockProducer{},
		libcal:   &MockRoomProvider{kind: domain.KindLibCal},
		wharton:  &MockRoomProvider{kind: domain.KindWharton},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f.service = NewBookingService(
		f.repo,
		f.groups,
		provider.NewSet(f.libcal, f.wharton),
		f.resolver,
		f.producer,
		"gsr_bookings",
		2,
		30*time.Minute,
		logger,
	)
	return f
}

func TestBookRooms_NonAdminMakesZeroUpstreamCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.groups.On("HasAdmin", ctx, int64(7), "member").Return(false, nil).Once()

	results, err := f.service.BookRooms(ctx, 7, "member", []domain.BookingRequest{
		{Lid: "1", RoomID: "100"},
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Nil(t, results)
	f.libcal.AssertNotCalled(t, "Book")
	f.wharton.AssertNotCalled(t, "Book")
	f.repo.AssertNotCalled(t, "Create")
	f.groups.AssertExpectations(t)
}

// Mixed outcome across providers: one room confirms, one fails upstream.
// No rollback of the confirmed room, one reservation persisted, outcomes
// preserve input order.
func TestBookRooms_PartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	calReq := domain.BookingRequest{
		Lid: "1", RoomID: "100", RoomName: "Weigle 101",
		Start: time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
	}
	uniReq := domain.BookingRequest{
		Lid: "2", RoomID: "250", RoomName: "Huntsman 250",
		Start: calReq.Start,
		End:   calReq.End,
	}

	f.groups.On("HasAdmin", ctx, int64(7), "admin").Return(true, nil).Once()
	f.resolver.On("ResolveKind", ctx, "1").Return(domain.KindLibCal, nil).Once()
	f.resolver.On("ResolveKind", ctx, "2").Return(domain.KindWharton, nil).Once()
	f.libcal.On("Book", ctx, "admin", calReq).Return(domain.Confirmed("C123")).Once()
	f.wharton.On("Book", ctx, "admin", uniReq).Return(domain.Failed("upstream 500")).Once()
	f.repo.On("Create", ctx, mock.MatchedBy(func(r *domain.Reservation) bool {
		return r.BookingID == "C123" && r.Kind == domain.KindLibCal && r.Owner == "admin" && r.GroupID == 7
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, "gsr_bookings", "C123", mock.Anything).Return(nil).Once()

	results, err := f.service.BookRooms(ctx, 7, "admin", []domain.BookingRequest{calReq, uniReq})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.True(t, results[0].Outcome.Confirmed)
	assert.Equal(t, "C123", results[0].Outcome.BookingID)
	assert.False(t, results[1].Outcome.Confirmed)
	assert.Equal(t, "upstream 500", results[1].Outcome.Reason)

	f.repo.AssertNumberOfCalls(t, "Create", 1)
	f.groups.AssertExpectations(t)
	f.resolver.AssertExpectations(t)
	f.libcal.AssertExpectations(t)
	f.wharton.AssertExpectations(t)
}

func TestBookRooms_UnknownLocationFailsThatRoomOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := domain.BookingRequest{Lid: "999", RoomID: "1"}

	f.groups.On("HasAdmin", ctx, int64(1), "admin").Return(true, nil).Once()
	f.resolver.On("ResolveKind", ctx, "999").Return(domain.ProviderKind(""), domain.ErrNotFound).Once()

	results, err := f.service.BookRooms(ctx, 1, "admin", []domain.BookingRequest{req})

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.False(t, results[0].Outcome.Confirmed)
	assert.Contains(t, results[0].Outcome.Reason, "unknown location")
	f.libcal.AssertNotCalled(t, "Book")
	f.wharton.AssertNotCalled(t, "Book")
}

// A persistence failure after upstream confirmation is the accepted
// inconsistency window: the outcome stays Confirmed, but no event goes
// out for a booking the registry cannot resolve.
func TestBookRooms_PersistFailureKeepsConfirmedOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := domain.BookingRequest{Lid: "1", RoomID: "100"}

	f.groups.On("HasAdmin", ctx, int64(1), "admin").Return(true, nil).Once()
	f.resolver.On("ResolveKind", ctx, "1").Return(domain.KindLibCal, nil).Once()
	f.libcal.On("Book", ctx, "admin", req).Return(domain.Confirmed("C9")).Once()
	f.repo.On("Create", ctx, mock.Anything).Return(errors.New("db down")).Once()

	results, err := f.service.BookRooms(ctx, 1, "admin", []domain.BookingRequest{req})

	assert.NoError(t, err)
	assert.True(t, results[0].Outcome.Confirmed)
	f.repo.AssertExpectations(t)
	f.producer.AssertNotCalled(t, "Publish")
}

func TestCancel_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation := &domain.Reservation{
		BookingID: "C123",
		Kind:      domain.KindLibCal,
		Owner:     "admin",
	}

	f.repo.On("GetByBookingID", ctx, "C123").Return(reservation, nil).Once()
	f.libcal.On("Cancel", ctx, "admin", "C123").Return(nil).Once()
	f.repo.On("MarkCancelled", ctx, domain.KindLibCal, "C123").Return(nil).Once()
	f.producer.On("Publish", ctx, "gsr_bookings", "C123", mock.Anything).Return(nil).Once()

	err := f.service.Cancel(ctx, "admin", "C123")

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
	f.libcal.AssertExpectations(t)
}

func TestCancel_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.repo.On("GetByBookingID", ctx, "nope").Return(nil, domain.ErrNotFound).Once()

	err := f.service.Cancel(ctx, "admin", "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.libcal.AssertNotCalled(t, "Cancel")
}

// The local is_cancelled flag gates a second cancel before any upstream
// call is attempted again through this system.
func TestCancel_AlreadyCancelledRejectedBeforeUpstream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation := &domain.Reservation{
		BookingID:   "C123",
		Kind:        domain.KindLibCal,
		Owner:       "admin",
		IsCancelled: true,
	}
	f.repo.On("GetByBookingID", ctx, "C123").Return(reservation, nil).Once()

	err := f.service.Cancel(ctx, "admin", "C123")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.libcal.AssertNotCalled(t, "Cancel")
	f.repo.AssertNotCalled(t, "MarkCancelled")
}

func TestCancel_NotOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation := &domain.Reservation{
		BookingID: "C123",
		Kind:      domain.KindLibCal,
		Owner:     "somebody-else",
	}
	f.repo.On("GetByBookingID", ctx, "C123").Return(reservation, nil).Once()

	err := f.service.Cancel(ctx, "admin", "C123")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.libcal.AssertNotCalled(t, "Cancel")
}

// A failed upstream cancel leaves local state untouched.
func TestCancel_UpstreamFailureLeavesLocalStateAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reservation := &domain.Reservation{
		BookingID: "C123",
		Kind:      domain.KindLibCal,
		Owner:     "admin",
	}
	upstreamErr := &domain.UpstreamError{Provider: domain.KindLibCal, Message: "booking not found upstream"}

	f.repo.On("GetByBookingID", ctx, "C123").Return(reservation, nil).Once()
	f.libcal.On("Cancel", ctx, "admin", "C123").Return(upstreamErr).Once()

	err := f.service.Cancel(ctx, "admin", "C123")

	assert.ErrorIs(t, err, domain.ErrUpstream)
	f.repo.AssertNotCalled(t, "MarkCancelled")
}

func TestListUpcoming_JoinsLiveProviderData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	rows := []domain.Reservation{
		{BookingID: "C1", Kind: domain.KindLibCal, RoomID: "100", RoomName: "stale name"},
		{BookingID: "W1", Kind: domain.KindWharton, RoomID: "250", RoomName: "Huntsman 250"},
	}
	liveDetail := domain.ReservationDetail{
		BookingID: "C1", Kind: domain.KindLibCal, RoomID: "100", RoomName: "Weigle 101",
		Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour),
	}

	f.repo.On("ListUpcoming", ctx, "admin", now.Add(3*24*time.Hour)).Return(rows, nil).Twice()
	f.libcal.On("Reservations", ctx, "admin", []string{"C1"}).Return([]domain.ReservationDetail{liveDetail}, nil).Twice()
	f.wharton.On("Reservations", ctx, "admin", []string{"W1"}).
		Return(nil, &domain.UpstreamError{Provider: domain.KindWharton, Status: 502}).Twice()

	first, err := f.service.ListUpcoming(ctx, "admin", 3)
	assert.NoError(t, err)
	assert.Len(t, first, 2)
	// Live data wins where the provider resolved the id.
	assert.Equal(t, "Weigle 101", first[0].RoomName)
	// The unresolvable row degrades to locally recorded details.
	assert.Equal(t, "Huntsman 250", first[1].RoomName)

	// Idempotent with no intervening mutation.
	second, err := f.service.ListUpcoming(ctx, "admin", 3)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSweepReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }
	f.service.notificationsTopic = "gsr_notifications"

	due := []domain.Reservation{
		{BookingID: "C1", Kind: domain.KindLibCal, Owner: "admin"},
	}

	f.repo.On("DueReminders", ctx, now, now.Add(30*time.Minute)).Return(due, nil).Once()
	f.repo.On("MarkReminderSent", ctx, domain.KindLibCal, "C1").Return(nil).Once()
	f.producer.On("Publish", ctx, "gsr_notifications", "C1", mock.Anything).Return(nil).Once()

	sent, err := f.service.SweepReminders(ctx)

	assert.NoError(t, err)
	assert.Len(t, sent, 1)
	f.repo.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}
