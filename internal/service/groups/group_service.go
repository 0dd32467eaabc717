package groups

import (
	"context"

	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/repository"
	"github.com/sirupsen/logrus"
)

type GroupUseCase interface {
	ListForUser(ctx context.Context, username string) ([]domain.Group, error)
	Create(ctx context.Context, username, name, color string) (*domain.Group, error)
	Invites(ctx context.Context, groupID int64, username string) ([]domain.GroupMembership, error)
	Invite(ctx context.Context, groupID int64, actor, invitee string, mType domain.MembershipType) (*domain.GroupMembership, error)
	Accept(ctx context.Context, membershipID int64, username string) (*domain.GroupMembership, error)
	Decline(ctx context.Context, membershipID int64, username string) error
	HasAdmin(ctx context.Context, groupID int64, username string) (bool, error)
}

type GroupService struct {
	repo   repository.GroupRepository
	logger *logrus.Logger
}

func NewGroupService(repo repository.GroupRepository, logger *logrus.Logger) *GroupService {
	return &GroupService{repo: repo, logger: logger}
}

func (s *GroupService) ListForUser(ctx context.Context, username string) ([]domain.Group, error) {
	return s.repo.ListGroupsForUser(ctx, username)
}

func (s *GroupService) Create(ctx context.Context, username, name, color string) (*domain.Group, error) {
	g := &domain.Group{Name: name, Owner: username, Color: color}
	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"group": g.ID, "owner": username}).Info("group created")
	return g, nil
}

// Invites lists pending invites for a group; members only.
func (s *GroupService) Invites(ctx context.Context, groupID int64, username string) ([]domain.GroupMembership, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	member, err := s.repo.HasMember(ctx, groupID, username)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListInvites(ctx, groupID)
}

func (s *GroupService) Invite(ctx context.Context, groupID int64, actor, invitee string, mType domain.MembershipType) (*domain.GroupMembership, error) {
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	member, err := s.repo.HasMember(ctx, groupID, actor)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrForbidden
	}

	if mType == "" {
		mType = domain.MembershipMember
	}
	m := &domain.GroupMembership{GroupID: groupID, Username: invitee, Type: mType}
	if err := s.repo.CreateInvite(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *GroupService) Accept(ctx context.Context, membershipID int64, username string) (*domain.GroupMembership, error) {
	m, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	if m.Username != username {
		return nil, domain.ErrForbidden
	}
	if !m.IsInvite() {
		return nil, domain.ErrConflict
	}
	if err := s.repo.AcceptInvite(ctx, membershipID); err != nil {
		return nil, err
	}
	m.Accepted = true
	return m, nil
}

func (s *GroupService) Decline(ctx context.Context, membershipID int64, username string) error {
	m, err := s.repo.GetMembership(ctx, membershipID)
	if err != nil {
		return err
	}
	if m.Username != username {
		return domain.ErrForbidden
	}
	if !m.IsInvite() {
		return domain.ErrConflict
	}
	return s.repo.DeleteMembership(ctx, membershipID)
}

func (s *GroupService) HasAdmin(ctx context.Context, groupID int64, username string) (bool, error) {
	return s.repo.HasAdmin(ctx, groupID, username)
}

var _ GroupUseCase = (*GroupService)(nil)
