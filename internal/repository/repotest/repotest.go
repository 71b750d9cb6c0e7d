// Package repotest provides in-memory repositories for service and
// controller tests.
package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/ivr-backend/internal/errors"
	"github.com/unclebandit/ivr-backend/internal/model"
	"github.com/unclebandit/ivr-backend/internal/repository"
)

// ContactRepo is an in-memory contact store, shared with ListRepo for contact counts.
type ContactRepo struct {
	mu         sync.Mutex
	nextID     int64
	contacts   map[int64]*model.Contact
	KnownLists map[int64]bool // nil accepts any list id
}

func NewContactRepo() *ContactRepo {
	return &ContactRepo{contacts: map[int64]*model.Contact{}}
}

func applyValues(c *model.Contact, v model.ContactValues) {
	if v.Name != nil {
		c.Name = *v.Name
	}
	if v.CompanyName != nil {
		c.CompanyName = *v.CompanyName
	}
	if v.Title != nil {
		c.Title = *v.Title
	}
	if v.Email != nil {
		c.Email = *v.Email
	}
	if v.Country != nil {
		c.Country = *v.Country
	}
	if v.OptOut != nil {
		c.OptOut = *v.OptOut
	}
	if v.MessageBounce != nil {
		c.MessageBounce = *v.MessageBounce
	}
	if v.UnsubscriptionDate != nil {
		if v.UnsubscriptionDate.Valid {
			t := v.UnsubscriptionDate.Time
			c.UnsubscriptionDate = &t
		} else {
			c.UnsubscriptionDate = nil
		}
	}
	if v.ListIDs != nil {
		c.ListIDs = append([]int64{}, *v.ListIDs...)
	}
	for _, id := range v.LinkListIDs {
		if !containsID(c.ListIDs, id) {
			c.ListIDs = append(c.ListIDs, id)
		}
	}
	if v.TagIDs != nil {
		c.TagIDs = append([]int64{}, *v.TagIDs...)
	}
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (m *ContactRepo) checkLists(v model.ContactValues) error {
	if m.KnownLists == nil {
		return nil
	}
	ids := append([]int64{}, v.LinkListIDs...)
	if v.ListIDs != nil {
		ids = append(ids, *v.ListIDs...)
	}
	for _, id := range ids {
		if !m.KnownLists[id] {
			return &appErrors.ErrInvalidReference{Model: "ivr.contact", Constraint: "ivr_contact_list_rel_list_id_fkey"}
		}
	}
	return nil
}

func (m *ContactRepo) Create(ctx context.Context, v model.ContactValues) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLists(v); err != nil {
		return 0, err
	}
	m.nextID++
	c := &model.Contact{ID: m.nextID, CreateDate: time.Now(), ListIDs: []int64{}, TagIDs: []int64{}}
	applyValues(c, v)
	m.contacts[c.ID] = c
	return c.ID, nil
}

func (m *ContactRepo) Update(ctx context.Context, ids []int64, v model.ContactValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.contacts[id]; !ok {
			return appErrors.NewNotFound("ivr.contact", id)
		}
	}
	if err := m.checkLists(v); err != nil {
		return err
	}
	for _, id := range ids {
		applyValues(m.contacts[id], v)
	}
	return nil
}

func (m *ContactRepo) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, appErrors.NewNotFound("ivr.contact", id)
	}
	cp := *c
	return &cp, nil
}

func (m *ContactRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Contact{}
	for _, id := range ids {
		if c, ok := m.contacts[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *ContactRepo) List(ctx context.Context, f repository.ContactFilter) ([]model.Contact, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []model.Contact{}
	for _, c := range m.contacts {
		if f.Search != "" && !strings.Contains(c.Email, f.Search) && !strings.Contains(c.Name, f.Search) {
			continue
		}
		if f.ListID != 0 && !containsID(c.ListIDs, f.ListID) {
			continue
		}
		if f.OptOut != nil && c.OptOut != *f.OptOut {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	start, end := f.Offset, f.Offset+f.Limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *ContactRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return appErrors.NewNotFound("ivr.contact", id)
	}
	delete(m.contacts, id)
	return nil
}

// ListRepo computes contact_nbr from its ContactRepo.
type ListRepo struct {
	Contacts *ContactRepo
	nextID   int64
	lists    map[int64]*model.List
}

func NewListRepo(contacts *ContactRepo) *ListRepo {
	return &ListRepo{Contacts: contacts, lists: map[int64]*model.List{}}
}

func (m *ListRepo) Create(ctx context.Context, v model.ListValues) (int64, error) {
	m.nextID++
	l := &model.List{ID: m.nextID, Active: true, CreateDate: time.Now()}
	if v.Name != nil {
		l.Name = *v.Name
	}
	if v.Active != nil {
		l.Active = *v.Active
	}
	m.lists[l.ID] = l
	return l.ID, nil
}

func (m *ListRepo) Update(ctx context.Context, id int64, v model.ListValues) error {
	l, ok := m.lists[id]
	if !ok {
		return appErrors.NewNotFound("ivr.list", id)
	}
	if v.Name != nil {
		l.Name = *v.Name
	}
	if v.Active != nil {
		l.Active = *v.Active
	}
	return nil
}

func (m *ListRepo) GetByID(ctx context.Context, id int64) (*model.List, error) {
	l, ok := m.lists[id]
	if !ok {
		return nil, appErrors.NewNotFound("ivr.list", id)
	}
	counts, _ := m.ContactCounts(ctx)
	cp := *l
	cp.ContactNbr = counts[id]
	return &cp, nil
}

func (m *ListRepo) List(ctx context.Context, f repository.ListFilter) ([]model.List, int, error) {
	counts, _ := m.ContactCounts(ctx)
	out := []model.List{}
	for _, l := range m.lists {
		if f.Active != nil && l.Active != *f.Active {
			continue
		}
		if f.Search != "" && !strings.Contains(l.Name, f.Search) {
			continue
		}
		cp := *l
		cp.ContactNbr = counts[l.ID]
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *ListRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.lists[id]; !ok {
		return appErrors.NewNotFound("ivr.list", id)
	}
	delete(m.lists, id)
	return nil
}

func (m *ListRepo) ContactCounts(ctx context.Context) (map[int64]int, error) {
	m.Contacts.mu.Lock()
	defer m.Contacts.mu.Unlock()
	counts := map[int64]int{}
	for _, c := range m.Contacts.contacts {
		if c.OptOut {
			continue
		}
		for _, id := range c.ListIDs {
			counts[id]++
		}
	}
	return counts, nil
}

// TagRepo enforces the unique tag name.
type TagRepo struct {
	nextID int64
	tags   map[int64]model.Tag
}

func NewTagRepo() *TagRepo { return &TagRepo{tags: map[int64]model.Tag{}} }

func (m *TagRepo) Create(ctx context.Context, t model.Tag) (int64, error) {
	for _, existing := range m.tags {
		if existing.Name == t.Name {
			return 0, &appErrors.ErrDuplicateKey{Model: "ivr.tag", Constraint: "ivr_tag_name_uniq"}
		}
	}
	m.nextID++
	t.ID = m.nextID
	m.tags[t.ID] = t
	return t.ID, nil
}

func (m *TagRepo) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	t, ok := m.tags[id]
	if !ok {
		return nil, appErrors.NewNotFound("ivr.tag", id)
	}
	return &t, nil
}

func (m *TagRepo) List(ctx context.Context) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, t := range m.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *TagRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.tags[id]; !ok {
		return appErrors.NewNotFound("ivr.tag", id)
	}
	delete(m.tags, id)
	return nil
}

// CallRepo stores calls per channel. A non-nil FailCreate fails every insert.
type CallRepo struct {
	mu         sync.Mutex
	nextID     int64
	calls      map[model.Channel][]model.CallLog
	FailCreate error
}

func NewCallRepo() *CallRepo {
	return &CallRepo{calls: map[model.Channel][]model.CallLog{}}
}

func (m *CallRepo) Create(ctx context.Context, channel model.Channel, call model.CallLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return 0, m.FailCreate
	}
	if _, ok := model.ParseChannel(string(channel)); !ok {
		return 0, appErrors.NewInvalidChannel(string(channel))
	}
	m.nextID++
	call.ID = m.nextID
	call.Channel = channel
	if call.CreateDate.IsZero() {
		call.CreateDate = time.Now()
	}
	m.calls[channel] = append(m.calls[channel], call)
	return call.ID, nil
}

func (m *CallRepo) GetByID(ctx context.Context, channel model.Channel, id int64) (*model.CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls[channel] {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, appErrors.NewNotFound(channel.CallModel(), id)
}

func (m *CallRepo) List(ctx context.Context, channel model.Channel, offset, limit int) ([]model.CallLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.calls[channel]
	start, end := offset, offset+limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return append([]model.CallLog{}, all[start:end]...), len(all), nil
}

func (m *CallRepo) Delete(ctx context.Context, channel model.Channel, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.calls[channel] {
		if c.ID == id {
			m.calls[channel] = append(m.calls[channel][:i], m.calls[channel][i+1:]...)
			return nil
		}
	}
	return appErrors.NewNotFound(channel.CallModel(), id)
}

func (m *CallRepo) Count(channel model.Channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls[channel])
}

// SettingsRepo counts LatestGateway reads in LatestCalls. AfterLatest, when
// set, runs once after a LatestGateway read has been taken.
type SettingsRepo struct {
	nextID      int64
	ivr         map[int64]model.IVRSettings
	gateway     map[int64]model.GatewaySettings
	LatestCalls int
	AfterLatest func()
}

func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{ivr: map[int64]model.IVRSettings{}, gateway: map[int64]model.GatewaySettings{}}
}

var errNotGateway = errors.New("not a gateway channel")

func (m *SettingsRepo) CreateIVR(ctx context.Context, s model.IVRSettings) (int64, error) {
	m.nextID++
	s.ID = m.nextID
	m.ivr[s.ID] = s
	return s.ID, nil
}

func (m *SettingsRepo) UpdateIVR(ctx context.Context, id int64, s model.IVRSettings) error {
	if _, ok := m.ivr[id]; !ok {
		return appErrors.NewNotFound("ivr.settings", id)
	}
	s.ID = id
	m.ivr[id] = s
	return nil
}

func (m *SettingsRepo) GetIVR(ctx context.Context, id int64) (*model.IVRSettings, error) {
	s, ok := m.ivr[id]
	if !ok {
		return nil, appErrors.NewNotFound("ivr.settings", id)
	}
	return &s, nil
}

func (m *SettingsRepo) ListIVR(ctx context.Context) ([]model.IVRSettings, error) {
	out := []model.IVRSettings{}
	for _, s := range m.ivr {
		out = append(out, s)
	}
	return out, nil
}

func (m *SettingsRepo) DeleteIVR(ctx context.Context, id int64) error {
	if _, ok := m.ivr[id]; !ok {
		return appErrors.NewNotFound("ivr.settings", id)
	}
	delete(m.ivr, id)
	return nil
}

func (m *SettingsRepo) CreateGateway(ctx context.Context, channel model.Channel, s model.GatewaySettings) (int64, error) {
	if !channel.HasGateway() {
		return 0, errNotGateway
	}
	m.nextID++
	s.ID = m.nextID
	s.Channel = channel
	s.CreateDate = time.Now().Add(time.Duration(m.nextID) * time.Second)
	m.gateway[s.ID] = s
	return s.ID, nil
}

func (m *SettingsRepo) UpdateGateway(ctx context.Context, channel model.Channel, id int64, s model.GatewaySettings) error {
	old, ok := m.gateway[id]
	if !ok || old.Channel != channel {
		return appErrors.NewNotFound(channel.SettingsModel(), id)
	}
	s.ID, s.Channel, s.CreateDate = id, channel, old.CreateDate
	m.gateway[id] = s
	return nil
}

func (m *SettingsRepo) GetGateway(ctx context.Context, channel model.Channel, id int64) (*model.GatewaySettings, error) {
	s, ok := m.gateway[id]
	if !ok || s.Channel != channel {
		return nil, appErrors.NewNotFound(channel.SettingsModel(), id)
	}
	return &s, nil
}

func (m *SettingsRepo) ListGateway(ctx context.Context, channel model.Channel) ([]model.GatewaySettings, error) {
	out := []model.GatewaySettings{}
	for _, s := range m.gateway {
		if s.Channel == channel {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *SettingsRepo) LatestGateway(ctx context.Context, channel model.Channel) (*model.GatewaySettings, error) {
	m.LatestCalls++
	rows, _ := m.ListGateway(ctx, channel)
	if len(rows) == 0 {
		return nil, appErrors.NewNotFound(channel.SettingsModel(), 0)
	}
	latest := rows[len(rows)-1]
	if hook := m.AfterLatest; hook != nil {
		m.AfterLatest = nil
		hook()
	}
	return &latest, nil
}

func (m *SettingsRepo) ExpiringGateway(ctx context.Context, channel model.Channel, before time.Time) ([]model.GatewaySettings, error) {
	rows, _ := m.ListGateway(ctx, channel)
	out := []model.GatewaySettings{}
	for _, s := range rows {
		if s.ExDate != nil && !s.ExDate.After(before) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *SettingsRepo) DeleteGateway(ctx context.Context, channel model.Channel, id int64) error {
	s, ok := m.gateway[id]
	if !ok || s.Channel != channel {
		return appErrors.NewNotFound(channel.SettingsModel(), id)
	}
	delete(m.gateway, id)
	return nil
}

type APIRepo struct {
	nextID int64
	apis   map[int64]model.GatewayAPI
}

func NewAPIRepo() *APIRepo { return &APIRepo{apis: map[int64]model.GatewayAPI{}} }

func (m *APIRepo) Create(ctx context.Context, channel model.Channel, a model.GatewayAPI) (int64, error) {
	m.nextID++
	a.ID, a.Channel = m.nextID, channel
	m.apis[a.ID] = a
	return a.ID, nil
}

func (m *APIRepo) GetByID(ctx context.Context, channel model.Channel, id int64) (*model.GatewayAPI, error) {
	a, ok := m.apis[id]
	if !ok || a.Channel != channel {
		return nil, appErrors.NewNotFound(channel.APIsModel(), id)
	}
	return &a, nil
}

func (m *APIRepo) List(ctx context.Context, channel model.Channel) ([]model.GatewayAPI, error) {
	out := []model.GatewayAPI{}
	for _, a := range m.apis {
		if a.Channel == channel {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *APIRepo) Delete(ctx context.Context, channel model.Channel, id int64) error {
	a, ok := m.apis[id]
	if !ok || a.Channel != channel {
		return appErrors.NewNotFound(channel.APIsModel(), id)
	}
	delete(m.apis, id)
	return nil
}

var (
	_ repository.ContactRepositoryInterface    = (*ContactRepo)(nil)
	_ repository.ListRepositoryInterface       = (*ListRepo)(nil)
	_ repository.TagRepositoryInterface        = (*TagRepo)(nil)
	_ repository.CallRepositoryInterface       = (*CallRepo)(nil)
	_ repository.SettingsRepositoryInterface   = (*SettingsRepo)(nil)
	_ repository.GatewayAPIRepositoryInterface = (*APIRepo)(nil)
)
