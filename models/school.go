package models

// SchoolID identifies a school. It is chosen by the host, not issued.
type SchoolID int32

// School is the aggregate root owning the teacher, class, schedule and subject
// registries and the counters that issue their ids.
//
// Ids are issued by the Next* methods and never reused, even after removal.
// Issuing an id does not insert anything: callers construct the entity and
// add it explicitly. School is not safe for concurrent use. The zero value is
// not usable; create schools with NewSchool or FromSnapshot.
type School struct {
	id   SchoolID
	name string

	teachers  *Registry[TeacherID, Teacher]
	classes   *Registry[ClassID, *Class]
	schedules *Registry[ScheduleID, Schedule]
	subjects  *Registry[SubjectID, Subject]

	nextTeacherID  TeacherID
	nextClassID    ClassID
	nextScheduleID ScheduleID
	nextSubjectID  SubjectID
}

// NewSchool creates an empty school whose counters all start at 1
func NewSchool(id SchoolID, name string) *School {
	return &School{
		id:             id,
		name:           name,
		teachers:       NewRegistry[TeacherID, Teacher](),
		classes:        NewRegistry[ClassID, *Class](),
		schedules:      NewRegistry[ScheduleID, Schedule](),
		subjects:       NewRegistry[SubjectID, Subject](),
		nextTeacherID:  1,
		nextClassID:    1,
		nextScheduleID: 1,
		nextSubjectID:  1,
	}
}

// ID returns the school id
func (s *School) ID() SchoolID { return s.id }

// Name returns the school name
func (s *School) Name() string { return s.name }

// --- Id issuance ---

// NextTeacherID returns the current teacher counter and advances it.
// Counters wrap on uint32 overflow.
func (s *School) NextTeacherID() TeacherID {
	id := s.nextTeacherID
	s.nextTeacherID++
	return id
}

// NextClassID returns the current class counter and advances it
func (s *School) NextClassID() ClassID {
	id := s.nextClassID
	s.nextClassID++
	return id
}

// NextScheduleID returns the current schedule counter and advances it
func (s *School) NextScheduleID() ScheduleID {
	id := s.nextScheduleID
	s.nextScheduleID++
	return id
}

// NextSubjectID returns the current subject counter and advances it
func (s *School) NextSubjectID() SubjectID {
	id := s.nextSubjectID
	s.nextSubjectID++
	return id
}

// PeekNextClassID returns the id the next NextClassID call will issue
func (s *School) PeekNextClassID() ClassID { return s.nextClassID }

// PeekNextTeacherID returns the id the next NextTeacherID call will issue
func (s *School) PeekNextTeacherID() TeacherID { return s.nextTeacherID }

// PeekNextScheduleID returns the id the next NextScheduleID call will issue
func (s *School) PeekNextScheduleID() ScheduleID { return s.nextScheduleID }

// PeekNextSubjectID returns the id the next NextSubjectID call will issue
func (s *School) PeekNextSubjectID() SubjectID { return s.nextSubjectID }

// --- Teachers ---

// AddTeacher stores t under its own id, replacing any teacher with that id
func (s *School) AddTeacher(t Teacher) {
	s.teachers.Put(t.ID(), t)
}

// Teacher returns the teacher with id and whether it exists
func (s *School) Teacher(id TeacherID) (Teacher, bool) {
	return s.teachers.Get(id)
}

// RemoveTeacher deletes the teacher if present
func (s *School) RemoveTeacher(id TeacherID) {
	s.teachers.Delete(id)
}

// Teachers lists teachers in insertion order
func (s *School) Teachers() []Teacher {
	return s.teachers.Values()
}

// --- Classes ---

// AddClass stores c under its own id, replacing any class with that id.
// The school keeps the pointer, so later edits to c are visible through Class.
func (s *School) AddClass(c *Class) {
	s.classes.Put(c.ID(), c)
}

// Class returns the stored class with id and whether it exists
func (s *School) Class(id ClassID) (*Class, bool) {
	return s.classes.Get(id)
}

// RemoveClass deletes the class if present. Schedules referring to it are kept.
func (s *School) RemoveClass(id ClassID) {
	s.classes.Delete(id)
}

// Classes lists classes in insertion order
func (s *School) Classes() []*Class {
	return s.classes.Values()
}

// --- Schedules ---

// AddSchedule stores sc under its own id, replacing any schedule with that id
func (s *School) AddSchedule(sc Schedule) {
	s.schedules.Put(sc.ID(), sc)
}

// Schedule returns the schedule with id and whether it exists
func (s *School) Schedule(id ScheduleID) (Schedule, bool) {
	return s.schedules.Get(id)
}

// RemoveSchedule deletes the schedule if present
func (s *School) RemoveSchedule(id ScheduleID) {
	s.schedules.Delete(id)
}

// Schedules lists schedules in insertion order
func (s *School) Schedules() []Schedule {
	return s.schedules.Values()
}

// --- Subjects ---

// AddSubject stores sub under its own id, replacing any subject with that id
func (s *School) AddSubject(sub Subject) {
	s.subjects.Put(sub.ID(), sub)
}

// Subject returns the subject with id and whether it exists
func (s *School) Subject(id SubjectID) (Subject, bool) {
	return s.subjects.Get(id)
}

// RemoveSubject deletes the subject if present. Teachers and classes
// referring to it are left untouched.
func (s *School) RemoveSubject(id SubjectID) {
	s.subjects.Delete(id)
}

// Subjects lists subjects in insertion order
func (s *School) Subjects() []Subject {
	return s.subjects.Values()
}
