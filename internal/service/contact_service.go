package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/metrics"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/nameparse"
	"github.com/unclebandit/ivr-backend/internal/repository"
	"github.com/unclebandit/ivr-backend/internal/schema"
)

type ContactService struct {
	Repo  repository.ContactRepositoryInterface
	Hooks []ContactHook
	Log   logrus.FieldLogger
	Now   func() time.Time
}

func NewContactService(repo repository.ContactRepositoryInterface, reg *schema.Registry, log logrus.FieldLogger) *ContactService {
	return &ContactService{
		Repo:  repo,
		Hooks: DefaultContactHooks(reg),
		Log:   log,
		Now:   time.Now,
	}
}

// NameLabel is the (id, display name) pair returned by quick-create calls.
type NameLabel struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type ContactSearch struct {
	Query    string
	ListID   int64
	OptOut   *bool
	Page     int
	PageSize int
}

// persist runs the hooks and hands the result to the repository. It is the
// only path contact payloads take to the database.
func (s *ContactService) persist(ctx context.Context, op Operation, ids []int64, v model.ContactValues) (int64, error) {
	now := s.Now()
	var err error
	for _, hook := range s.Hooks {
		if v, err = hook(op, now, v); err != nil {
			return 0, err
		}
	}

	var id int64
	switch op {
	case OpCreate:
		id, err = s.Repo.Create(ctx, v)
		ids = []int64{id}
	default:
		err = s.Repo.Update(ctx, ids, v)
	}
	if err != nil {
		return 0, err
	}

	if v.OptOut != nil && *v.OptOut {
		metrics.ContactsOptedOut.Add(float64(len(ids)))
		s.Log.WithFields(logrus.Fields{"op": op.String(), "contact_ids": ids}).Info("Contacts opted out")
	}
	return id, nil
}

func (s *ContactService) Create(ctx context.Context, v model.ContactValues) (*model.Contact, error) {
	id, err := s.persist(ctx, OpCreate, nil, v)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, id)
}

// Write applies the same payload to every contact in ids. Repeated ids are
// written once.
func (s *ContactService) Write(ctx context.Context, ids []int64, v model.ContactValues) error {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	_, err := s.persist(ctx, OpWrite, ids, v)
	return err
}

func (s *ContactService) Get(ctx context.Context, id int64) (*model.Contact, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *ContactService) Search(ctx context.Context, q ContactSearch) ([]model.Contact, map[string]int, error) {
	page, pageSize, offset := pageWindow(q.Page, q.PageSize)
	contacts, total, err := s.Repo.List(ctx, repository.ContactFilter{
		Search: q.Query,
		ListID: q.ListID,
		OptOut: q.OptOut,
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, nil, err
	}
	return contacts, pagination(page, pageSize, total), nil
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	return s.Repo.Delete(ctx, id)
}

// NameCreate creates a contact from a free-form string such as
// `Jane Doe <jane@example.com>`.
func (s *ContactService) NameCreate(ctx context.Context, raw string) (NameLabel, error) {
	return s.quickCreate(ctx, raw, nil)
}

// AddToList is NameCreate plus a link to listID.
func (s *ContactService) AddToList(ctx context.Context, raw string, listID int64) (NameLabel, error) {
	return s.quickCreate(ctx, raw, []int64{listID})
}

func (s *ContactService) quickCreate(ctx context.Context, raw string, listIDs []int64) (NameLabel, error) {
	name, email := nameparse.NameEmail(raw)
	id, err := s.persist(ctx, OpCreate, nil, model.ContactValues{
		Name:        &name,
		Email:       &email,
		LinkListIDs: listIDs,
	})
	if err != nil {
		return NameLabel{}, err
	}
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return NameLabel{}, err
	}
	return NameLabel{ID: c.ID, Label: c.Label()}, nil
}

// DefaultRecipients maps each contact to the address notifications about it go to.
func (s *ContactService) DefaultRecipients(ctx context.Context, ids []int64) (map[int64]model.Recipient, error) {
	contacts, err := s.Repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(contacts) < len(ids) {
		found := make(map[int64]bool, len(contacts))
		for _, c := range contacts {
			found[c.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return nil, appErrors.NewNotFound("ivr.contact", id)
			}
		}
	}
	return model.DefaultRecipients(contacts), nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
