package service

import (
	"context"
	"strings"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository"
)

type TagService struct {
	Repo repository.TagRepositoryInterface
}

// Create fails with ErrDuplicateKey when a tag with the same name exists.
func (s *TagService) Create(ctx context.Context, t model.Tag) (*model.Tag, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return nil, appErrors.NewMissingRequiredField("ivr.tag", "name")
	}
	id, err := s.Repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.Repo.List(ctx)
}

func (s *TagService) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}
