package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"school-registry-go/models"
)

var (
	// ErrClassNotFound is returned by class subject edits on a missing class
	ErrClassNotFound = errors.New("class not found")
	// ErrPersist wraps failures of the Persister. The in-memory change has already been applied.
	ErrPersist = errors.New("persist school")
)

// Persister stores a school snapshot after each mutation
type Persister interface {
	Save(ctx context.Context, snap models.Snapshot) error
}

// SchoolService guards one School with a single lock so id issuance and
// insertion happen as one step. It is safe for concurrent use.
type SchoolService struct {
	mu        sync.Mutex
	school    *models.School
	persister Persister
	log       *slog.Logger
}

// NewSchoolService wraps school. persister may be nil, in which case state lives in memory only.
func NewSchoolService(school *models.School, persister Persister, logger *slog.Logger) *SchoolService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchoolService{
		school:    school,
		persister: persister,
		log:       logger.With("component", "school_service", "school_id", school.ID()),
	}
}

// persistLocked saves the current state. Caller must hold s.mu.
func (s *SchoolService) persistLocked(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.school.Snapshot()); err != nil {
		s.log.Error("persist school", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Snapshot returns a detached copy of the school's state
func (s *SchoolService) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Snapshot()
}

// Save persists the current state without mutating it
func (s *SchoolService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// Batch runs fn under the lock against a working copy of the school. The copy
// replaces the live school only when fn succeeds, and is then persisted once.
// If fn fails, none of its changes are kept.
func (s *SchoolService) Batch(ctx context.Context, fn func(school *models.School) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := models.FromSnapshot(s.school.Snapshot())
	if err := fn(work); err != nil {
		return err
	}
	s.school = work
	return s.persistLocked(ctx)
}

// --- Teachers ---

// CreateTeacher issues a teacher id, builds the teacher and inserts it
func (s *SchoolService) CreateTeacher(ctx context.Context, name string, subjectID models.SubjectID) (models.Teacher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.NewTeacher(s.school.NextTeacherID(), name, subjectID)
	s.school.AddTeacher(t)
	s.log.Info("teacher created", "teacher_id", t.ID(), "subject_id", subjectID)
	return t, s.persistLocked(ctx)
}

// Teacher looks up a teacher by id
func (s *SchoolService) Teacher(id models.TeacherID) (models.Teacher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Teacher(id)
}

// Teachers lists teachers in insertion order
func (s *SchoolService) Teachers() []models.Teacher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Teachers()
}

// RemoveTeacher deletes the teacher. It reports whether the teacher existed.
func (s *SchoolService) RemoveTeacher(ctx context.Context, id models.TeacherID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.school.Teacher(id); !ok {
		return false, nil
	}
	s.school.RemoveTeacher(id)
	s.log.Info("teacher removed", "teacher_id", id)
	return true, s.persistLocked(ctx)
}

// --- Classes ---

// CreateClass issues a class id, builds the class with the given subjects and
// inserts it. The returned class is a copy.
func (s *SchoolService) CreateClass(ctx context.Context, name, description string, subjectIDs ...models.SubjectID) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.NewClass(s.school.NextClassID(), name, description)
	c.AddSubjects(subjectIDs...)
	s.school.AddClass(c)
	s.log.Info("class created", "class_id", c.ID(), "subjects", len(c.SubjectIDs()))
	return c.Clone(), s.persistLocked(ctx)
}

// Class returns a copy of the class so callers cannot edit it outside the lock
func (s *SchoolService) Class(id models.ClassID) (*models.Class, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.school.Class(id)
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Classes lists copies of the classes in insertion order
func (s *SchoolService) Classes() []*models.Class {
	s.mu.Lock()
	defer s.mu.Unlock()

	classes := s.school.Classes()
	out := make([]*models.Class, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.Clone())
	}
	return out
}

// RemoveClass deletes the class and reports whether it existed. Schedules are kept.
func (s *SchoolService) RemoveClass(ctx context.Context, id models.ClassID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.school.Class(id); !ok {
		return false, nil
	}
	s.school.RemoveClass(id)
	s.log.Info("class removed", "class_id", id)
	return true, s.persistLocked(ctx)
}

// AddClassSubjects associates subjects with an existing class
func (s *SchoolService) AddClassSubjects(ctx context.Context, id models.ClassID, subjectIDs ...models.SubjectID) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.school.Class(id)
	if !ok {
		return nil, fmt.Errorf("add subjects to class %d: %w", id, ErrClassNotFound)
	}
	c.AddSubjects(subjectIDs...)
	return c.Clone(), s.persistLocked(ctx)
}

// RemoveClassSubject drops one subject from an existing class
func (s *SchoolService) RemoveClassSubject(ctx context.Context, id models.ClassID, subjectID models.SubjectID) (*models.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.school.Class(id)
	if !ok {
		return nil, fmt.Errorf("remove subject from class %d: %w", id, ErrClassNotFound)
	}
	c.RemoveSubject(subjectID)
	return c.Clone(), s.persistLocked(ctx)
}

// --- Schedules ---

// CreateSchedule issues a schedule id, builds the schedule and inserts it
func (s *SchoolService) CreateSchedule(ctx context.Context, name string, classID models.ClassID) (models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := models.NewSchedule(s.school.NextScheduleID(), name, classID)
	s.school.AddSchedule(sc)
	s.log.Info("schedule created", "schedule_id", sc.ID(), "class_id", classID)
	return sc, s.persistLocked(ctx)
}

// Schedule looks up a schedule by id
func (s *SchoolService) Schedule(id models.ScheduleID) (models.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Schedule(id)
}

// Schedules lists schedules in insertion order
func (s *SchoolService) Schedules() []models.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Schedules()
}

// RemoveSchedule deletes the schedule and reports whether it existed
func (s *SchoolService) RemoveSchedule(ctx context.Context, id models.ScheduleID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.school.Schedule(id); !ok {
		return false, nil
	}
	s.school.RemoveSchedule(id)
	s.log.Info("schedule removed", "schedule_id", id)
	return true, s.persistLocked(ctx)
}

// --- Subjects ---

// CreateSubject issues a subject id, builds the subject and inserts it
func (s *SchoolService) CreateSubject(ctx context.Context, name string) (models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := models.NewSubject(s.school.NextSubjectID(), name)
	s.school.AddSubject(sub)
	s.log.Info("subject created", "subject_id", sub.ID())
	return sub, s.persistLocked(ctx)
}

// Subject looks up a subject by id
func (s *SchoolService) Subject(id models.SubjectID) (models.Subject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Subject(id)
}

// Subjects lists subjects in insertion order
func (s *SchoolService) Subjects() []models.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.school.Subjects()
}

// RemoveSubject deletes the subject and reports whether it existed
func (s *SchoolService) RemoveSubject(ctx context.Context, id models.SubjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.school.Subject(id); !ok {
		return false, nil
	}
	s.school.RemoveSubject(id)
	s.log.Info("subject removed", "subject_id", id)
	return true, s.persistLocked(ctx)
}
