package service

import (
	"context"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

type ListService struct {
	Repo     repository.ListRepositoryInterface
	Registry *schema.Registry
}

type ListSearch struct {
	Query string
	// Active defaults to true; archived lists are only returned when asked for.
	Active   *bool
	Page     int
	PageSize int
}

func (s *ListService) Create(ctx context.Context, v model.ListValues) (*model.List, error) {
	if missing := s.Registry.Missing("ivr.list", v.Columns()); len(missing) > 0 {
		return nil, appErrors.NewMissingRequiredField("ivr.list", missing[0])
	}
	id, err := s.Repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *ListService) Update(ctx context.Context, id int64, v model.ListValues) (*model.List, error) {
	if blank := s.Registry.Blank("ivr.list", v.Columns()); len(blank) > 0 {
		return nil, appErrors.NewMissingRequiredField("ivr.list", blank[0])
	}
	if err := s.Repo.Update(ctx, id, v); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *ListService) Get(ctx context.Context, id int64) (*model.List, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *ListService) Search(ctx context.Context, q ListSearch) ([]model.List, map[string]int, error) {
	active := q.Active
	if active == nil {
		t := true
		active = &t
	}
	page, pageSize, offset := pageWindow(q.Page, q.PageSize)
	lists, total, err := s.Repo.List(ctx, repository.ListFilter{
		Search: q.Query,
		Active: active,
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, nil, err
	}
	return lists, pagination(page, pageSize, total), nil
}

func (s *ListService) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}
