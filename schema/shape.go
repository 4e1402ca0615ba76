/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"strings"
)

// Declared type names understood by the bundled backends.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeDecimal  = "decimal"
	TypeBoolean  = "boolean"
	TypeDateTime = "date-time"
	TypeDate     = "date"
	TypeBytes    = "bytes"
)

// Field is one named member of a Shape. A relation field points at the Shape of
// the related entity instead of carrying a scalar type.
type Field struct {
	Name     string
	Type     string
	Relation bool
	Many     bool
	Shape    *Shape
}

// Scalar declares a scalar field of the given type name.
func Scalar(name, typeName string) Field {
	return Field{Name: name, Type: typeName}
}

// One declares a to-one relation.
func One(name string, related *Shape) Field {
	return Field{Name: name, Type: related.Name, Relation: true, Shape: related}
}

// Many declares a to-many relation.
func Many(name string, related *Shape) Field {
	return Field{Name: name, Type: related.Name, Relation: true, Many: true, Shape: related}
}

// TypeName is the name recorded in a type map for this field.
func (f Field) TypeName() string {
	if f.Relation && f.Many {
		return "[]" + f.Type
	}
	return f.Type
}

// Shape describes a tabular record: an ordered list of named, typed fields.
// Shapes are treated as immutable once built; derive new ones instead of editing.
type Shape struct {
	Name   string
	Fields []Field
}

// New builds a Shape. Field names must be unique.
func New(name string, fields ...Field) (*Shape, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("shape %q: field with empty name", name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("shape %q: duplicate field %q", name, f.Name)
		}
		if f.Relation && f.Shape == nil {
			return nil, fmt.Errorf("shape %q: relation %q has no related shape", name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return &Shape{Name: name, Fields: append([]Field(nil), fields...)}, nil
}

// MustNew is New for statically known shapes; it panics on an invalid declaration.
func MustNew(name string, fields ...Field) *Shape {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field looks up a member by name.
func (s *Shape) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Has reports whether the shape declares name.
func (s *Shape) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}

// Names lists the member names in declaration order.
func (s *Shape) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Project returns a shape holding only the named members, in the order given.
// It is how callers carve a requested shape out of a registered entity schema.
func (s *Shape) Project(names ...string) (*Shape, error) {
	fields := make([]Field, 0, len(names))
	for _, n := range names {
		f, ok := s.Field(n)
		if !ok {
			return nil, fmt.Errorf("shape %q has no field %q", s.Name, n)
		}
		fields = append(fields, f)
	}
	return New(s.Name, fields...)
}

func (s *Shape) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ":" + f.TypeName()
	}
	return s.Name + "{" + strings.Join(parts, ", ") + "}"
}
