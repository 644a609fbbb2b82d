package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ScheduleID identifies a schedule within a school
type ScheduleID uint32

// Schedule is a named timetable belonging to a class. The class id is a plain
// reference; removing the class leaves the schedule in place.
type Schedule struct {
	id      ScheduleID
	name    string
	classID ClassID
}

type scheduleRecord struct {
	ID      ScheduleID `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	ClassID ClassID    `json:"class_id" yaml:"class_id"`
}

// NewSchedule creates a schedule record for classID
func NewSchedule(id ScheduleID, name string, classID ClassID) Schedule {
	return Schedule{id: id, name: name, classID: classID}
}

// ID returns the schedule id
func (s Schedule) ID() ScheduleID { return s.id }

// Name returns the schedule name
func (s Schedule) Name() string { return s.name }

// ClassID returns the id of the class the schedule belongs to
func (s Schedule) ClassID() ClassID { return s.classID }

// MarshalJSON encodes the schedule as {id, name, class_id}
func (s Schedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(scheduleRecord{ID: s.id, Name: s.name, ClassID: s.classID})
}

// UnmarshalJSON decodes a schedule from {id, name, class_id}
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var rec scheduleRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = NewSchedule(rec.ID, rec.Name, rec.ClassID)
	return nil
}

// MarshalYAML encodes the schedule with the same fields as MarshalJSON
func (s Schedule) MarshalYAML() (interface{}, error) {
	return scheduleRecord{ID: s.id, Name: s.name, ClassID: s.classID}, nil
}

// UnmarshalYAML decodes a schedule with the same fields as UnmarshalJSON
func (s *Schedule) UnmarshalYAML(node *yaml.Node) error {
	var rec scheduleRecord
	if err := node.Decode(&rec); err != nil {
		return err
	}
	*s = NewSchedule(rec.ID, rec.Name, rec.ClassID)
	return nil
}
