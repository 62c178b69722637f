package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edudir/student-directory/internal/models"
	"github.com/edudir/student-directory/internal/validation"
	appErrors "github.com/edudir/student-directory/pkg/errors"
)

type studentRepository interface {
	Load() ([]models.Student, error)
	Replace([]models.Student) error
}

type queryEngine interface {
	Run([]models.Student, models.StudentFilter) []models.StudentView
}

// StudentService orchestrates validation, the flat-file repository and the
// query engine into the five record operations. It owns identity assignment
// and timestamping, and keeps a cached copy of the collection that is
// refreshed from storage on every mutation; storage stays the source of truth.
type StudentService struct {
	repo      studentRepository
	query     queryEngine
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.RWMutex
	cache  []models.Student
	loaded bool
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, query queryEngine, v *validation.Validator, logger *zap.Logger, now func() time.Time) *StudentService {
	if v == nil {
		v = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &StudentService{repo: repo, query: query, validator: v, logger: logger, now: now}
}

// List runs the query pipeline over the collection. An empty result is
// success, never an error.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentView, error) {
	students, err := s.collection()
	if err != nil {
		return nil, err
	}
	return s.query.Run(students, filter), nil
}

// Get returns the record with the given id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	students, err := s.collection()
	if err != nil {
		return nil, err
	}
	for i := range students {
		if students[i].ID == id {
			student := students[i]
			return &student, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Create validates the input, assigns a fresh unique id, stamps both
// timestamps and persists the extended collection.
func (s *StudentService) Create(ctx context.Context, input validation.Input) (*models.Student, error) {
	draft := validation.Normalize(input)
	if err := s.validator.ValidateDraft(draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.load()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	student := models.Student{
		ID:         s.newID(students),
		Name:       draft.Name,
		Surname:    draft.Surname,
		Lastname:   draft.Lastname,
		Birthday:   draft.Birthday,
		StudyStart: draft.StudyStart,
		Faculty:    draft.Faculty,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	students = append(students, student)

	if err := s.persist(students); err != nil {
		return nil, err
	}
	return &student, nil
}

// Update merges the partial input over the stored record, re-validates the
// merged result and persists it with a refreshed updatedAt.
func (s *StudentService) Update(ctx context.Context, id string, input validation.Input) (*models.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.load()
	if err != nil {
		return nil, err
	}

	idx := indexOf(students, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	merged := mergeInput(students[idx], input)
	draft := validation.Normalize(merged)
	if err := s.validator.ValidateDraft(draft); err != nil {
		return nil, err
	}

	students[idx].Name = draft.Name
	students[idx].Surname = draft.Surname
	students[idx].Lastname = draft.Lastname
	students[idx].Birthday = draft.Birthday
	students[idx].StudyStart = draft.StudyStart
	students[idx].Faculty = draft.Faculty
	students[idx].UpdatedAt = s.timestamp()

	if err := s.persist(students); err != nil {
		return nil, err
	}
	student := students[idx]
	return &student, nil
}

// Delete removes the record and persists the shrunk collection. Ids are never
// reused: identity comes from fresh UUIDs, not from collection positions.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.load()
	if err != nil {
		return err
	}

	idx := indexOf(students, id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	students = append(students[:idx], students[idx+1:]...)

	return s.persist(students)
}

// collection returns a snapshot of the cached collection, loading it from the
// repository on first use or after an invalidation.
func (s *StudentService) collection() ([]models.Student, error) {
	s.mu.RLock()
	if s.loaded {
		snapshot := make([]models.Student, len(s.cache))
		copy(snapshot, s.cache)
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	students, err := s.load()
	if err != nil {
		return nil, err
	}
	snapshot := make([]models.Student, len(students))
	copy(snapshot, students)
	return snapshot, nil
}

// load always reads from storage and refreshes the cache. Callers hold mu.
func (s *StudentService) load() ([]models.Student, error) {
	students, err := s.repo.Load()
	if err != nil {
		s.logger.Error("load student collection failed", zap.Error(err))
		s.loaded = false
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load student collection")
	}
	s.cache = students
	s.loaded = true
	out := make([]models.Student, len(students))
	copy(out, students)
	return out, nil
}

// persist replaces the stored collection and refreshes the cache. Callers hold mu.
func (s *StudentService) persist(students []models.Student) error {
	if err := s.repo.Replace(students); err != nil {
		s.logger.Error("persist student collection failed", zap.Error(err))
		s.loaded = false
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to persist student collection")
	}
	s.cache = students
	s.loaded = true
	return nil
}

func (s *StudentService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// newID returns a UUID not present in the collection. A collision is
// practically impossible but the contract requires uniqueness, so it is checked.
func (s *StudentService) newID(students []models.Student) string {
	for {
		id := uuid.NewString()
		if indexOf(students, id) < 0 {
			return id
		}
	}
}

func indexOf(students []models.Student, id string) int {
	for i := range students {
		if students[i].ID == id {
			return i
		}
	}
	return -1
}

// mergeInput lays the patch over the stored business fields; only keys present
// in the patch override.
func mergeInput(current models.Student, patch validation.Input) validation.Input {
	merged := validation.Input{
		"name":       current.Name,
		"surname":    current.Surname,
		"lastname":   current.Lastname,
		"birthday":   current.Birthday,
		"studyStart": current.StudyStart,
		"faculty":    current.Faculty,
	}
	for key, value := range patch {
		merged[key] = value
	}
	return merged
}
