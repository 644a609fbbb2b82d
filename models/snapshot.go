package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Snapshot is the field-for-field serializable form of a School.
// Entity slices are in registry insertion order.
type Snapshot struct {
	ID             SchoolID   `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Teachers       []Teacher  `json:"teachers" yaml:"teachers"`
	Classes        []*Class   `json:"classes" yaml:"classes"`
	Schedules      []Schedule `json:"schedules" yaml:"schedules"`
	Subjects       []Subject  `json:"subjects" yaml:"subjects"`
	NextTeacherID  TeacherID  `json:"next_teacher_id" yaml:"next_teacher_id"`
	NextClassID    ClassID    `json:"next_class_id" yaml:"next_class_id"`
	NextScheduleID ScheduleID `json:"next_schedule_id" yaml:"next_schedule_id"`
	NextSubjectID  SubjectID  `json:"next_subject_id" yaml:"next_subject_id"`
}

// Snapshot captures the school's current state. Classes are copied, so the
// snapshot does not change when the school is mutated afterwards.
func (s *School) Snapshot() Snapshot {
	classes := make([]*Class, 0, s.classes.Len())
	for _, c := range s.classes.Values() {
		classes = append(classes, c.Clone())
	}
	return Snapshot{
		ID:             s.id,
		Name:           s.name,
		Teachers:       s.Teachers(),
		Classes:        classes,
		Schedules:      s.Schedules(),
		Subjects:       s.Subjects(),
		NextTeacherID:  s.nextTeacherID,
		NextClassID:    s.nextClassID,
		NextScheduleID: s.nextScheduleID,
		NextSubjectID:  s.nextSubjectID,
	}
}

// FromSnapshot rebuilds a School. Entities are inserted in slice order with
// the usual last-write-wins rule. Each counter is restored as recorded but never
// below one past the highest id present, so restored ids are not issued again.
func FromSnapshot(snap Snapshot) *School {
	s := NewSchool(snap.ID, snap.Name)
	for _, t := range snap.Teachers {
		s.AddTeacher(t)
	}
	for _, c := range snap.Classes {
		if c == nil {
			continue
		}
		s.AddClass(c.Clone())
	}
	for _, sc := range snap.Schedules {
		s.AddSchedule(sc)
	}
	for _, sub := range snap.Subjects {
		s.AddSubject(sub)
	}
	s.nextTeacherID = restoreCounter(snap.NextTeacherID, s.teachers.Keys())
	s.nextClassID = restoreCounter(snap.NextClassID, s.classes.Keys())
	s.nextScheduleID = restoreCounter(snap.NextScheduleID, s.schedules.Keys())
	s.nextSubjectID = restoreCounter(snap.NextSubjectID, s.subjects.Keys())
	return s
}

// restoreCounter returns max(recorded, highest id + 1), and at least 1
func restoreCounter[K ~uint32](recorded K, ids []K) K {
	next := recorded
	if next == 0 {
		next = 1
	}
	for _, id := range ids {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// MarshalJSON encodes the school as its Snapshot
func (s *School) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON replaces s with the school decoded from a Snapshot
func (s *School) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	*s = *FromSnapshot(snap)
	return nil
}

// MarshalYAML encodes the school as its Snapshot
func (s *School) MarshalYAML() (interface{}, error) {
	return s.Snapshot(), nil
}

// UnmarshalYAML replaces s with the school decoded from a Snapshot
func (s *School) UnmarshalYAML(node *yaml.Node) error {
	var snap Snapshot
	if err := node.Decode(&snap); err != nil {
		return err
	}
	*s = *FromSnapshot(snap)
	return nil
}
