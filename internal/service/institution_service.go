package service

import (
	"context"

	"github.com/noah-isme/festival-live-api/internal/models"
	appErrors "github.com/noah-isme/festival-live-api/pkg/errors"
)

// InstitutionService exposes the seeded houses.
type InstitutionService struct {
	repo institutionLister
}

// NewInstitutionService constructs the service.
func NewInstitutionService(repo institutionLister) *InstitutionService {
	return &InstitutionService{repo: repo}
}

// ListActive returns active institutions sorted by display name.
func (s *InstitutionService) ListActive(ctx context.Context) ([]models.Institution, error) {
	items, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return items, nil
}
