package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// SubjectID identifies a subject within a school
type SubjectID uint32

// Subject is a named subject taught at the school
type Subject struct {
	id   SubjectID
	name string
}

type subjectRecord struct {
	ID   SubjectID `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

// NewSubject creates a subject record
func NewSubject(id SubjectID, name string) Subject {
	return Subject{id: id, name: name}
}

// ID returns the subject id
func (s Subject) ID() SubjectID { return s.id }

// Name returns the subject name
func (s Subject) Name() string { return s.name }

// MarshalJSON encodes the subject as {id, name}
func (s Subject) MarshalJSON() ([]byte, error) {
	return json.Marshal(subjectRecord{ID: s.id, Name: s.name})
}

// UnmarshalJSON decodes a subject from {id, name}
func (s *Subject) UnmarshalJSON(data []byte) error {
	var rec subjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*s = NewSubject(rec.ID, rec.Name)
	return nil
}

// MarshalYAML encodes the subject with the same fields as MarshalJSON
func (s Subject) MarshalYAML() (interface{}, error) {
	return subjectRecord{ID: s.id, Name: s.name}, nil
}

// UnmarshalYAML decodes a subject with the same fields as UnmarshalJSON
func (s *Subject) UnmarshalYAML(node *yaml.Node) error {
	var rec subjectRecord
	if err := node.Decode(&rec); err != nil {
		return err
	}
	*s = NewSubject(rec.ID, rec.Name)
	return nil
}
