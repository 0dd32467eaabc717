package spaces

import (
	"context"
	"time"

	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/pennmobile/gsr-booking/internal/provider"
	"github.com/sirupsen/logrus"
)

type SpacesUseCase interface {
	Locations(ctx context.Context) ([]domain.Building, error)
	Availability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error)
	ResolveKind(ctx context.Context, lid string) (domain.ProviderKind, error)
}

type Cache interface {
	GetBuildings(ctx context.Context) ([]domain.Building, error)
	SetBuildings(ctx context.Context, buildings []domain.Building) error
}

type SpacesService struct {
	providers *provider.Set
	cache     Cache
	logger    *logrus.Logger
	now       func() time.Time
}

func NewSpacesService(providers *provider.Set, cache Cache, logger *logrus.Logger) *SpacesService {
	return &SpacesService{providers: providers, cache: cache, logger: logger, now: time.Now}
}

// Locations merges both providers' building lists. The merge fails open:
// a provider that errors contributes an empty list and the call still
// succeeds, so callers must tolerate partial results.
func (s *SpacesService) Locations(ctx context.Context) ([]domain.Building, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBuildings(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	buildings := make([]domain.Building, 0)
	for _, p := range s.providers.All() {
		list, err := p.ListBuildings(ctx)
		if err != nil {
			s.logger.WithField("kind", p.Kind()).WithError(err).
				Warn("building list unavailable, merging without it")
			continue
		}
		buildings = append(buildings, list...)
	}

	if s.cache != nil && len(buildings) > 0 {
		_ = s.cache.SetBuildings(ctx, buildings)
	}
	return buildings, nil
}

// Availability returns rooms for a building with past slots removed.
// A building belongs to exactly one provider, so there is no merge here.
func (s *SpacesService) Availability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error) {
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	kind, err := s.ResolveKind(ctx, lid)
	if err != nil {
		return nil, err
	}
	p, ok := s.providers.ForKind(kind)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.ListAvailability(ctx, username, lid, date)
}

func (s *SpacesService) ResolveKind(ctx context.Context, lid string) (domain.ProviderKind, error) {
	buildings, err := s.Locations(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range buildings {
		if b.Lid == lid {
			return b.Kind, nil
		}
	}
	return "", domain.ErrNotFound
}

var _ SpacesUseCase = (*SpacesService)(nil)
