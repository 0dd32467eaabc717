package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennmobile/gsr-booking/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Reservation, error)
	MarkCancelled(ctx context.Context, kind domain.ProviderKind, bookingID string) error
	ListUpcoming(ctx context.Context, owner string, cutoff time.Time) ([]domain.Reservation, error)
	DueReminders(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	MarkReminderSent(ctx context.Context, kind domain.ProviderKind, bookingID string) error
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const reservationColumns = `booking_id, provider_kind, room_id, room_name, start_time, end_time, owner, group_id, is_cancelled, reminder_sent, created_at, updated_at`

// Booking ids are unique per provider, not globally; a cross-provider
// collision resolves to the same row on every call.
const getByBookingIDQuery = `SELECT ` + reservationColumns + ` FROM reservations
	WHERE booking_id=$1 ORDER BY provider_kind LIMIT 1`

// The window is bounded by end time on both sides: rows that already
// ended are gone, rows ending past the cutoff are not yet visible.
const listUpcomingQuery = `SELECT ` + reservationColumns + ` FROM reservations
	WHERE owner=$1 AND is_cancelled = FALSE AND end_time > now() AND end_time <= $2 ORDER BY start_time`

func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (booking_id, provider_kind, room_id, room_name, start_time, end_time, owner, group_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		res.BookingID, res.Kind, res.RoomID, res.RoomName, res.Start, res.End, res.Owner, res.GroupID).
		Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PGReservationRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, getByBookingIDQuery, bookingID)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

// MarkCancelled flips is_cancelled; the guard keeps the transition
// monotonic at the row level.
func (r *PGReservationRepository) MarkCancelled(ctx context.Context, kind domain.ProviderKind, bookingID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE reservations SET is_cancelled = TRUE, updated_at = now()
		WHERE provider_kind=$1 AND booking_id=$2 AND is_cancelled = FALSE`, kind, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGReservationRepository) ListUpcoming(ctx context.Context, owner string, cutoff time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, listUpcomingQuery, owner, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) DueReminders(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE is_cancelled = FALSE AND reminder_sent = FALSE AND start_time > $1 AND start_time <= $2 ORDER BY start_time`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) MarkReminderSent(ctx context.Context, kind domain.ProviderKind, bookingID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE reservations SET reminder_sent = TRUE, updated_at = now()
		WHERE provider_kind=$1 AND booking_id=$2`, kind, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := row.Scan(&res.BookingID, &res.Kind, &res.RoomID, &res.RoomName, &res.Start, &res.End,
		&res.Owner, &res.GroupID, &res.IsCancelled, &res.ReminderSent, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
