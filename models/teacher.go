package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// TeacherID identifies a teacher within a school
type TeacherID uint32

// Teacher is a member of staff teaching one subject. The subject id is a plain
// reference and is not checked against the school's subjects.
type Teacher struct {
	id        TeacherID
	name      string
	subjectID SubjectID
}

type teacherRecord struct {
	ID        TeacherID `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	SubjectID SubjectID `json:"subject_id" yaml:"subject_id"`
}

// NewTeacher creates a teacher record
func NewTeacher(id TeacherID, name string, subjectID SubjectID) Teacher {
	return Teacher{id: id, name: name, subjectID: subjectID}
}

// ID returns the teacher id
func (t Teacher) ID() TeacherID { return t.id }

// Name returns the teacher name
func (t Teacher) Name() string { return t.name }

// SubjectID returns the id of the subject the teacher teaches
func (t Teacher) SubjectID() SubjectID { return t.subjectID }

func (t Teacher) record() teacherRecord {
	return teacherRecord{ID: t.id, Name: t.name, SubjectID: t.subjectID}
}

// MarshalJSON encodes the teacher as {id, name, subject_id}
func (t Teacher) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.record())
}

// UnmarshalJSON decodes a teacher from {id, name, subject_id}
func (t *Teacher) UnmarshalJSON(data []byte) error {
	var rec teacherRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*t = NewTeacher(rec.ID, rec.Name, rec.SubjectID)
	return nil
}

// MarshalYAML encodes the teacher with the same fields as MarshalJSON
func (t Teacher) MarshalYAML() (interface{}, error) {
	return t.record(), nil
}

// UnmarshalYAML decodes a teacher with the same fields as UnmarshalJSON
func (t *Teacher) UnmarshalYAML(node *yaml.Node) error {
	var rec teacherRecord
	if err := node.Decode(&rec); err != nil {
		return err
	}
	*t = NewTeacher(rec.ID, rec.Name, rec.SubjectID)
	return nil
}
