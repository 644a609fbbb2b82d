package models

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ClassID identifies a class within a school
type ClassID uint32

// Class is a group of students together with the subjects it studies.
// Subject ids form an ordered set: insertion order is kept and duplicates collapse.
// The zero value is an empty class with id 0.
type Class struct {
	id          ClassID
	name        string
	description string
	subjects    *Registry[SubjectID, struct{}]
}

type classRecord struct {
	ID          ClassID     `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	SubjectIDs  []SubjectID `json:"subject_ids" yaml:"subject_ids"`
}

// NewClass creates a class with no subjects
func NewClass(id ClassID, name, description string) *Class {
	return &Class{
		id:          id,
		name:        name,
		description: description,
		subjects:    NewRegistry[SubjectID, struct{}](),
	}
}

// ID returns the class id
func (c *Class) ID() ClassID { return c.id }

// Name returns the class name
func (c *Class) Name() string { return c.name }

// Description returns the class description
func (c *Class) Description() string { return c.description }

// SubjectIDs returns a copy of the class's subject ids in insertion order
func (c *Class) SubjectIDs() []SubjectID {
	if c.subjects == nil {
		return []SubjectID{}
	}
	return c.subjects.Keys()
}

// HasSubject reports whether subjectID is associated with the class
func (c *Class) HasSubject(subjectID SubjectID) bool {
	if c.subjects == nil {
		return false
	}
	_, ok := c.subjects.Get(subjectID)
	return ok
}

// AddSubject associates subjectID with the class. Adding an existing id is a no-op.
func (c *Class) AddSubject(subjectID SubjectID) {
	if c.subjects == nil {
		c.subjects = NewRegistry[SubjectID, struct{}]()
	}
	if c.HasSubject(subjectID) {
		return
	}
	c.subjects.Put(subjectID, struct{}{})
}

// AddSubjects adds every id not already present, in argument order
func (c *Class) AddSubjects(subjectIDs ...SubjectID) {
	for _, id := range subjectIDs {
		c.AddSubject(id)
	}
}

// RemoveSubject drops subjectID from the class if present
func (c *Class) RemoveSubject(subjectID SubjectID) {
	if c.subjects == nil {
		return
	}
	c.subjects.Delete(subjectID)
}

func (c *Class) record() classRecord {
	return classRecord{
		ID:          c.id,
		Name:        c.name,
		Description: c.description,
		SubjectIDs:  c.SubjectIDs(),
	}
}

func classFromRecord(rec classRecord) *Class {
	c := NewClass(rec.ID, rec.Name, rec.Description)
	c.AddSubjects(rec.SubjectIDs...)
	return c
}

// MarshalJSON encodes the class with its subject ids as an array
func (c *Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.record())
}

// UnmarshalJSON decodes a class, collapsing duplicate subject ids
func (c *Class) UnmarshalJSON(data []byte) error {
	var rec classRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*c = *classFromRecord(rec)
	return nil
}

// MarshalYAML encodes the class like MarshalJSON
func (c *Class) MarshalYAML() (interface{}, error) {
	return c.record(), nil
}

// UnmarshalYAML decodes a class like UnmarshalJSON
func (c *Class) UnmarshalYAML(node *yaml.Node) error {
	var rec classRecord
	if err := node.Decode(&rec); err != nil {
		return err
	}
	*c = *classFromRecord(rec)
	return nil
}

// Clone returns an independent copy of the class
func (c *Class) Clone() *Class {
	return classFromRecord(c.record())
}
