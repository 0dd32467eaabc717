package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennmobile/gsr-booking/internal/domain"
)

type GroupRepository interface {
	CreateGroup(ctx context.Context, g *domain.Group) error
	GetGroup(ctx context.Context, id int64) (*domain.Group, error)
	ListGroupsForUser(ctx context.Context, username string) ([]domain.Group, error)
	HasMember(ctx context.Context, groupID int64, username string) (bool, error)
	HasAdmin(ctx context.Context, groupID int64, username string) (bool, error)
	ListInvites(ctx context.Context, groupID int64) ([]domain.GroupMembership, error)
	CreateInvite(ctx context.Context, m *domain.GroupMembership) error
	GetMembership(ctx context.Context, id int64) (*domain.GroupMembership, error)
	AcceptInvite(ctx context.Context, id int64) error
	DeleteMembership(ctx context.Context, id int64) error
}

type PGGroupRepository struct {
	db *pgxpool.Pool
}

func NewGroupRepository(db *pgxpool.Pool) GroupRepository {
	return &PGGroupRepository{db: db}
}

// CreateGroup inserts the group and an accepted admin membership for the
// creator in one transaction.
func (r *PGGroupRepository) CreateGroup(ctx context.Context, g *domain.Group) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO groups (name, owner, color) VALUES ($1, $2, $3) RETURNING id`,
		g.Name, g.Owner, g.Color).Scan(&g.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO group_memberships (group_id, username, type, accepted) VALUES ($1, $2, $3, TRUE)`,
		g.ID, g.Owner, domain.MembershipAdmin); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGGroupRepository) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, owner, color FROM groups WHERE id=$1`, id)
	var g domain.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Owner, &g.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *PGGroupRepository) ListGroupsForUser(ctx context.Context, username string) ([]domain.Group, error) {
	rows, err := r.db.Query(ctx, `SELECT g.id, g.name, g.owner, g.color FROM groups g
		JOIN group_memberships m ON m.group_id = g.id
		WHERE m.username=$1 AND m.accepted = TRUE ORDER BY g.name`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Owner, &g.Color); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PGGroupRepository) HasMember(ctx context.Context, groupID int64, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM group_memberships
		WHERE group_id=$1 AND username=$2 AND accepted = TRUE)`, groupID, username).Scan(&exists)
	return exists, err
}

func (r *PGGroupRepository) HasAdmin(ctx context.Context, groupID int64, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM group_memberships
		WHERE group_id=$1 AND username=$2 AND type=$3 AND accepted = TRUE)`, groupID, username, domain.MembershipAdmin).Scan(&exists)
	return exists, err
}

func (r *PGGroupRepository) ListInvites(ctx context.Context, groupID int64) ([]domain.GroupMembership, error) {
	rows, err := r.db.Query(ctx, `SELECT id, group_id, username, type, accepted, created_at
		FROM group_memberships WHERE group_id=$1 AND accepted = FALSE ORDER BY created_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]domain.GroupMembership, 0)
	for rows.Next() {
		var m domain.GroupMembership
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Username, &m.Type, &m.Accepted, &m.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, m)
	}
	return invites, rows.Err()
}

func (r *PGGroupRepository) CreateInvite(ctx context.Context, m *domain.GroupMembership) error {
	err := r.db.QueryRow(ctx, `INSERT INTO group_memberships (group_id, username, type, accepted)
		VALUES ($1, $2, $3, FALSE) RETURNING id, created_at`,
		m.GroupID, m.Username, m.Type).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PGGroupRepository) GetMembership(ctx context.Context, id int64) (*domain.GroupMembership, error) {
	row := r.db.QueryRow(ctx, `SELECT id, group_id, username, type, accepted, created_at
		FROM group_memberships WHERE id=$1`, id)
	var m domain.GroupMembership
	if err := row.Scan(&m.ID, &m.GroupID, &m.Username, &m.Type, &m.Accepted, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PGGroupRepository) AcceptInvite(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE group_memberships SET accepted = TRUE WHERE id=$1 AND accepted = FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGGroupRepository) DeleteMembership(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM group_memberships WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ GroupRepository = (*PGGroupRepository)(nil)
