/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"

	"github.com/suparena/persist/errors"
)

// Metadata is what a backend needs to answer a read for a requested shape.
// Fields and TypeMap keys come from the same shape.
type Metadata struct {
	// Fields are the scalar members to project, in declaration order.
	Fields []string
	// Includes are the relation members to resolve, in declaration order.
	Includes []string
	// TypeDescriptions[i] is the shape needed to materialize Includes[i].
	TypeDescriptions []*Shape
	// TypeMap maps field name to declared type name for value coercion.
	TypeMap map[string]string
}

// Extract computes the augmented shape and query metadata for requested.
//
// The augmented shape is requested with every key field it lacks appended in
// key order. Declarations for the appended keys come from entity, the full
// registered schema. TypeMap covers every member of requested plus the
// appended keys so key columns are typed the same way on every read path.
func Extract(requested *Shape, keyFields []string, entity *Shape) (*Shape, Metadata, error) {
	if requested == nil {
		return nil, Metadata{}, errors.NewInvalidShapeError(entityName(entity), "requested shape is nil")
	}

	augmented, err := WithKeyFields(requested, keyFields, entity)
	if err != nil {
		return nil, Metadata{}, err
	}

	md := Metadata{
		Fields:           make([]string, 0, len(requested.Fields)),
		Includes:         make([]string, 0),
		TypeDescriptions: make([]*Shape, 0),
		TypeMap:          make(map[string]string, len(augmented.Fields)),
	}
	for _, f := range requested.Fields {
		md.TypeMap[f.Name] = f.TypeName()
		if f.Relation {
			md.Includes = append(md.Includes, f.Name)
			md.TypeDescriptions = append(md.TypeDescriptions, f.Shape)
			continue
		}
		md.Fields = append(md.Fields, f.Name)
	}
	for _, f := range augmented.Fields[len(requested.Fields):] {
		md.TypeMap[f.Name] = f.TypeName()
	}
	return augmented, md, nil
}

// WithKeyFields returns requested extended by the key fields it does not declare.
// Requested members keep their order; each missing key is appended once at the end.
func WithKeyFields(requested *Shape, keyFields []string, entity *Shape) (*Shape, error) {
	fields := append([]Field(nil), requested.Fields...)
	appended := make(map[string]bool, len(keyFields))
	for _, key := range keyFields {
		if f, ok := requested.Field(key); ok {
			if f.Relation {
				return nil, errors.NewInvalidShapeError(requested.Name, fmt.Sprintf("key field %q is a relation", key))
			}
			continue
		}
		if appended[key] {
			continue
		}
		if entity == nil {
			return nil, errors.NewInvalidShapeError(requested.Name, fmt.Sprintf("key field %q is not declared", key))
		}
		f, ok := entity.Field(key)
		if !ok {
			return nil, errors.NewInvalidShapeError(entity.Name, fmt.Sprintf("key field %q is not declared", key))
		}
		if f.Relation {
			return nil, errors.NewInvalidShapeError(entity.Name, fmt.Sprintf("key field %q is a relation", key))
		}
		fields = append(fields, f)
		appended[key] = true
	}
	return &Shape{Name: requested.Name, Fields: fields}, nil
}

func entityName(s *Shape) string {
	if s == nil {
		return ""
	}
	return s.Name
}
