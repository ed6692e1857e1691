package assessment

import (
	"context"
	"encoding/json"
	"sync"

	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memoryStore keeps copies of assessments so a rolled back transaction can
// restore the previous state.
type memoryStore struct {
	mu          sync.Mutex
	assessments map[uuid.UUID]*models.Assessment
	locks       int
	saves       int
}

func newMemoryStore(assessments ...*models.Assessment) *memoryStore {
	s := &memoryStore{assessments: make(map[uuid.UUID]*models.Assessment)}
	for _, a := range assessments {
		s.assessments[a.ID] = cloneAssessment(a)
	}
	return s
}

func (s *memoryStore) Lock(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessments[id]; !ok {
		return models.ErrAssessmentNotFound
	}
	s.locks++
	return nil
}

func (s *memoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, models.ErrAssessmentNotFound
	}
	return cloneAssessment(a), nil
}

func (s *memoryStore) Save(_ context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.assessments[a.ID] = cloneAssessment(a)
	return nil
}

func (s *memoryStore) UpdateApplicationStatus(_ context.Context, applicationID uuid.UUID, status models.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assessments {
		if a.Application != nil && a.Application.ID == applicationID {
			a.Application.Status = status
		}
	}
	return nil
}

func (s *memoryStore) get(id uuid.UUID) *models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAssessment(s.assessments[id])
}

func (s *memoryStore) snapshot() map[uuid.UUID]*models.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*models.Assessment, len(s.assessments))
	for id, a := range s.assessments {
		out[id] = cloneAssessment(a)
	}
	return out
}

func (s *memoryStore) restore(snapshot map[uuid.UUID]*models.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments = snapshot
}

func cloneAssessment(a *models.Assessment) *models.Assessment {
	if a == nil {
		return nil
	}
	c := *a
	if a.Application != nil {
		app := *a.Application
		c.Application = &app
	}
	return &c
}

// fakeTransactor runs fn directly and restores the store when it fails.
type fakeTransactor struct {
	store     *memoryStore
	commits   int
	rollbacks int
}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	before := f.store.snapshot()
	if err := fn(ctx); err != nil {
		f.store.restore(before)
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type mockSchemas struct {
	mock.Mock
}

func (m *mockSchemas) GetNewestSchema(ctx context.Context, kind models.SchemaKind) (*models.JSONSchema, error) {
	args := m.Called(ctx, kind)
	schema, _ := args.Get(0).(*models.JSONSchema)
	return schema, args.Error(1)
}

func (m *mockSchemas) Validate(schema *models.JSONSchema, document json.RawMessage) bool {
	args := m.Called(schema, document)
	return args.Bool(0)
}

type mockAccess struct {
	mock.Mock
}

func (m *mockAccess) UserCanViewAssessment(user *models.User, a *models.Assessment) bool {
	args := m.Called(user, a)
	return args.Bool(0)
}

type mockOffenders struct {
	mock.Mock
}

func (m *mockOffenders) GetOffenderByCrn(ctx context.Context, crn, username string, ignoreLAO bool) (models.OffenderResult, error) {
	args := m.Called(ctx, crn, username, ignoreLAO)
	return args.Get(0).(models.OffenderResult), args.Error(1)
}

type mockRequirements struct {
	mock.Mock
}

func (m *mockRequirements) Create(ctx context.Context, a *models.Assessment, in *models.PlacementRequirementsInput) (*models.PlacementRequirements, error) {
	args := m.Called(ctx, a, in)
	reqs, _ := args.Get(0).(*models.PlacementRequirements)
	return reqs, args.Error(1)
}

type mockRequests struct {
	mock.Mock
}

func (m *mockRequests) Create(ctx context.Context, cmd models.PlacementRequestCommand) (*models.PlacementRequest, error) {
	args := m.Called(ctx, cmd)
	req, _ := args.Get(0).(*models.PlacementRequest)
	return req, args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) AssessmentAccepted(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error {
	return m.Called(ctx, a, offender, user).Error(0)
}

func (m *mockEvents) AssessmentRejected(ctx context.Context, a *models.Assessment, offender *models.OffenderSummary, user *models.User) error {
	return m.Called(ctx, a, offender, user).Error(0)
}

type mockEmails struct {
	mock.Mock
}

func (m *mockEmails) AssessmentAccepted(ctx context.Context, app *models.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockEmails) PlacementRequestSubmitted(ctx context.Context, app *models.Application) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockEmails) AssessmentRejected(ctx context.Context, app *models.Application) error {
	return m.Called(ctx, app).Error(0)
}

type mockNotes struct {
	mock.Mock
}

func (m *mockNotes) Add(ctx context.Context, assessmentID uuid.UUID, user *models.User, noteType models.SystemNoteType) error {
	return m.Called(ctx, assessmentID, user, noteType).Error(0)
}
