package engine_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/driplinehq/dripline-backend/internal/engine"
	appErrors "github.com/driplinehq/dripline-backend/internal/errors"
	"github.com/driplinehq/dripline-backend/internal/model"
	"github.com/driplinehq/dripline-backend/internal/provider"
)

// Reference timezone used throughout the engine tests, matching the
// production default of UTC+9.
var testZone = time.FixedZone("UTC+9", 9*3600)

// --- Mock Gateway ---

type mockGateway struct {
	mu      sync.Mutex
	batches [][]string
	ones    []string

	// batchErr, when set, decides per call whether a batch fails.
	batchErr func(call int, ids []string) error
	oneErr   error
}

func (g *mockGateway) PushBatch(_ context.Context, ids []string, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := len(g.batches)
	g.batches = append(g.batches, append([]string{}, ids...))
	if g.batchErr != nil {
		return g.batchErr(call, ids)
	}
	return nil
}

func (g *mockGateway) PushOne(_ context.Context, id string, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ones = append(g.ones, id)
	return g.oneErr
}

func (g *mockGateway) batchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.batches)
}

// --- Mock Repositories ---

type mockRecipientRepo struct {
	recs map[string]*model.Recipient

	markStepErr error
}

func (m *mockRecipientRepo) GetByID(id string) (*model.Recipient, error) {
	if r, ok := m.recs[id]; ok {
		return r, nil
	}
	return nil, appErrors.NewRecipientNotFound(id)
}

func (m *mockRecipientRepo) ListAll() ([]model.Recipient, error) {
	out := []model.Recipient{}
	for _, r := range m.recs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRecipientRepo) ListEnrolledBetween(from, to time.Time) ([]model.Recipient, error) {
	out := []model.Recipient{}
	for _, r := range m.recs {
		if !r.EnrolledAt.Before(from) && r.EnrolledAt.Before(to) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockRecipientRepo) Enroll(r *model.Recipient) error {
	if _, ok := m.recs[r.ID]; !ok {
		m.recs[r.ID] = r
	}
	return nil
}

func (m *mockRecipientRepo) UpdateProfile(id, nickname string, tags model.TagSet) error {
	r, ok := m.recs[id]
	if !ok {
		return appErrors.NewRecipientNotFound(id)
	}
	r.Nickname = nickname
	r.Tags = tags
	return nil
}

func (m *mockRecipientRepo) MarkStepSent(id string, daysAfter int) error {
	if m.markStepErr != nil {
		return m.markStepErr
	}
	if r, ok := m.recs[id]; ok {
		r.SentSteps.Add(daysAfter)
	}
	return nil
}

type mockDripStepRepo struct {
	steps []model.DripStep
}

func (m *mockDripStepRepo) ListAll() ([]model.DripStep, error)     { return m.steps, nil }
func (m *mockDripStepRepo) GetByID(string) (*model.DripStep, error) { return nil, nil }
func (m *mockDripStepRepo) Create(*model.DripStep) error            { return nil }
func (m *mockDripStepRepo) Update(*model.DripStep) error            { return nil }
func (m *mockDripStepRepo) Delete(string) error                     { return nil }

type historyEntry struct {
	sendID     string
	recipients int
}

type mockSendRepo struct {
	sends   map[string]*model.ScheduledSend
	history []historyEntry
}

func (m *mockSendRepo) ListAll() ([]model.ScheduledSend, error) {
	out := []model.ScheduledSend{}
	for _, s := range m.sends {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSendRepo) ListDue(now time.Time) ([]model.ScheduledSend, error) {
	out := []model.ScheduledSend{}
	for _, s := range m.sends {
		if s.Status == model.SendStatusPending && !s.SendAt.After(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockSendRepo) GetByID(id string) (*model.ScheduledSend, error) {
	if s, ok := m.sends[id]; ok {
		return s, nil
	}
	return nil, appErrors.NewScheduledSendNotFound(id)
}

func (m *mockSendRepo) Create(s *model.ScheduledSend) error {
	if s.Status == "" {
		s.Status = model.SendStatusPending
	}
	m.sends[s.ID] = s
	return nil
}

func (m *mockSendRepo) UpdatePending(s *model.ScheduledSend) error { return nil }
func (m *mockSendRepo) DeletePending(id string) error              { return nil }

func (m *mockSendRepo) MarkSent(id string, deliveredAt time.Time) error {
	s, ok := m.sends[id]
	if !ok || s.Status != model.SendStatusPending {
		return appErrors.NewSendNotPending(id, "")
	}
	s.Status = model.SendStatusSent
	s.DeliveredAt = &deliveredAt
	return nil
}

func (m *mockSendRepo) MarkError(id string, lastError string) error {
	s, ok := m.sends[id]
	if !ok || s.Status != model.SendStatusPending {
		return appErrors.NewSendNotPending(id, "")
	}
	s.Status = model.SendStatusError
	s.LastError = lastError
	return nil
}

func (m *mockSendRepo) AppendHistory(sendID string, recipientCount int, _ string, _ time.Time) error {
	m.history = append(m.history, historyEntry{sendID: sendID, recipients: recipientCount})
	return nil
}

type mockMarkerRepo struct {
	date string
}

func (m *mockMarkerRepo) LastStepCheckDate() (string, error)  { return m.date, nil }
func (m *mockMarkerRepo) SetLastStepCheckDate(d string) error { m.date = d; return nil }

// --- Harness ---

type testEnv struct {
	engine     *engine.Engine
	gateway    *mockGateway
	recipients *mockRecipientRepo
	steps      *mockDripStepRepo
	sends      *mockSendRepo
	marker     *mockMarkerRepo
}

func newTestEnv(chunkSize int) *testEnv {
	env := &testEnv{
		gateway:    &mockGateway{},
		recipients: &mockRecipientRepo{recs: map[string]*model.Recipient{}},
		steps:      &mockDripStepRepo{},
		sends:      &mockSendRepo{sends: map[string]*model.ScheduledSend{}},
		marker:     &mockMarkerRepo{},
	}
	env.engine = &engine.Engine{
		Recipients: env.recipients,
		Steps:      env.steps,
		Sends:      env.sends,
		Marker:     env.marker,
		Gateway:    func() provider.Gateway { return env.gateway },
		Dispatcher: engine.NewDispatcher(chunkSize),
		Zone:       testZone,
		Log:        zerolog.Nop(),
	}
	return env
}

func (e *testEnv) addRecipient(id string, enrolledAt time.Time, tags model.TagSet, sent ...int) {
	if tags == nil {
		tags = model.TagSet{}
	}
	e.recipients.recs[id] = &model.Recipient{
		ID:         id,
		Tags:       tags,
		EnrolledAt: enrolledAt.UTC(),
		SentSteps:  model.NewStepSet(sent...),
	}
}
