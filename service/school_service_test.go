package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"school-registry-go/models"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves []models.Snapshot
	err   error
}

func (p *recordingPersister) Save(_ context.Context, snap models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, snap)
	return p.err
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func newTestService(t *testing.T, p Persister) *SchoolService {
	t.Helper()
	return NewSchoolService(models.NewSchool(1, "Test School"), p, nil)
}

func TestCreateTeacherIssuesIDsAndPersists(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	svc := newTestService(t, p)

	first, err := svc.CreateTeacher(ctx, "A", 5)
	require.NoError(t, err)
	second, err := svc.CreateTeacher(ctx, "B", 6)
	require.NoError(t, err)

	require.Equal(t, models.TeacherID(1), first.ID())
	require.Equal(t, models.TeacherID(2), second.ID())

	got, ok := svc.Teacher(1)
	require.True(t, ok)
	require.Equal(t, first, got)
	require.Equal(t, 2, p.count())
	require.Len(t, p.saves[1].Teachers, 2)
}

func TestNilPersisterKeepsStateInMemory(t *testing.T) {
	svc := newTestService(t, nil)
	sub, err := svc.CreateSubject(context.Background(), "Maths")
	require.NoError(t, err)
	require.Equal(t, []models.Subject{sub}, svc.Subjects())
	require.NoError(t, svc.Save(context.Background()))
}

func TestPersistErrorIsReturnedButStateKept(t *testing.T) {
	boom := errors.New("boom")
	svc := newTestService(t, &recordingPersister{err: boom})

	sc, err := svc.CreateSchedule(context.Background(), "Mon", 3)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, ErrPersist)

	_, ok := svc.Schedule(sc.ID())
	require.True(t, ok)
}

func TestRemoveReportsPresence(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	svc := newTestService(t, p)

	sc, err := svc.CreateSchedule(ctx, "Mon", 1)
	require.NoError(t, err)

	removed, err := svc.RemoveSchedule(ctx, sc.ID())
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = svc.RemoveSchedule(ctx, sc.ID())
	require.NoError(t, err)
	require.False(t, removed)
	require.Equal(t, 2, p.count())
}

func TestClassSubjectEdits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	class, err := svc.CreateClass(ctx, "C", "D", 3, 4)
	require.NoError(t, err)

	class, err = svc.AddClassSubjects(ctx, class.ID(), 4, 5)
	require.NoError(t, err)
	require.Equal(t, []models.SubjectID{3, 4, 5}, class.SubjectIDs())

	class, err = svc.RemoveClassSubject(ctx, class.ID(), 4)
	require.NoError(t, err)
	require.Equal(t, []models.SubjectID{3, 5}, class.SubjectIDs())

	_, err = svc.AddClassSubjects(ctx, 99, 1)
	require.ErrorIs(t, err, ErrClassNotFound)
	_, err = svc.RemoveClassSubject(ctx, 99, 1)
	require.ErrorIs(t, err, ErrClassNotFound)
}

func TestReturnedClassIsACopy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	class, err := svc.CreateClass(ctx, "C", "D")
	require.NoError(t, err)
	class.AddSubject(9)

	stored, ok := svc.Class(class.ID())
	require.True(t, ok)
	require.Empty(t, stored.SubjectIDs())
}

func TestBatchPersistsOnce(t *testing.T) {
	p := &recordingPersister{}
	svc := newTestService(t, p)

	err := svc.Batch(context.Background(), func(school *models.School) error {
		for i := 0; i < 3; i++ {
			school.AddSubject(models.NewSubject(school.NextSubjectID(), "S"))
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, svc.Subjects(), 3)
	require.Equal(t, 1, p.count())

	err = svc.Batch(context.Background(), func(*models.School) error { return errors.New("stop") })
	require.EqualError(t, err, "stop")
	require.Equal(t, 1, p.count())
}

func TestBatchFailureDiscardsPartialChanges(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	svc := newTestService(t, p)
	class, err := svc.CreateClass(ctx, "C", "D", 1)
	require.NoError(t, err)

	err = svc.Batch(ctx, func(school *models.School) error {
		school.AddSubject(models.NewSubject(school.NextSubjectID(), "Maths"))
		c, _ := school.Class(class.ID())
		c.AddSubject(2)
		school.RemoveClass(class.ID())
		return errors.New("sheet unreadable")
	})
	require.EqualError(t, err, "sheet unreadable")

	require.Empty(t, svc.Subjects())
	stored, ok := svc.Class(class.ID())
	require.True(t, ok)
	require.Equal(t, []models.SubjectID{1}, stored.SubjectIDs())
	require.Equal(t, 1, p.count())

	// counters were not advanced by the failed batch
	sub, err := svc.CreateSubject(ctx, "Art")
	require.NoError(t, err)
	require.Equal(t, models.SubjectID(1), sub.ID())
}

func TestConcurrentCreatesIssueUniqueIDs(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	const workers = 20
	ids := make(chan models.ClassID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.CreateClass(ctx, "C", "D")
			if err == nil {
				ids <- c.ID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[models.ClassID]bool{}
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
	require.Len(t, svc.Classes(), workers)
}
