/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads entity descriptors from YAML and builds the backend
// bindings they describe.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/persist/datastore/ddb"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/logger"
	"github.com/suparena/persist/schema"
)

// Backend names accepted in an entity descriptor.
const (
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// File is the top-level configuration document.
type File struct {
	Logging  logger.Config  `yaml:"logging"`
	DynamoDB ddb.Config     `yaml:"dynamodb"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Shapes   []ShapeConfig  `yaml:"shapes"`
	Entities []EntityConfig `yaml:"entities"`
}

// SQLiteConfig holds the database shared by every sqlite entity.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ShapeConfig describes a record shape that is only used as a relation target.
type ShapeConfig struct {
	Name   string        `yaml:"name"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig describes one member of a shape. Exactly one of Type and
// Relation is set; Relation names another shape or entity.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type,omitempty"`
	Relation string `yaml:"relation,omitempty"`
	Many     bool   `yaml:"many,omitempty"`
}

// EntityConfig describes one entity and the backend that serves it.
type EntityConfig struct {
	Name      string        `yaml:"name"`
	Backend   string        `yaml:"backend"`
	Table     string        `yaml:"table,omitempty"`
	KeyFields []string      `yaml:"keyFields"`
	Fields    []FieldConfig `yaml:"fields"`

	// DynamoDB single-table settings
	EntityType string            `yaml:"entityType,omitempty"`
	KeyMap     map[string]string `yaml:"keyMap,omitempty"`

	// Rows seeds the memory backend.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Load reads a configuration file. The given .env files are loaded first
// (missing ones are skipped) and ${VAR} references in the file are replaced
// with environment values.
func Load(path string, envFiles ...string) (*File, error) {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a configuration document, substituting ${VAR} references, and
// validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Validate checks names, backends and key fields. Shape references are
// checked by BuildShapes.
func (f *File) Validate() error {
	seen := make(map[string]bool)
	for _, s := range f.Shapes {
		if s.Name == "" {
			return errors.NewValidationError("shapes", "shape name is required")
		}
		if seen[s.Name] {
			return errors.NewValidationError("shapes", fmt.Sprintf("duplicate shape %q", s.Name))
		}
		seen[s.Name] = true
	}
	for _, e := range f.Entities {
		if e.Name == "" {
			return errors.NewValidationError("entities", "entity name is required")
		}
		if seen[e.Name] {
			return errors.NewValidationError("entities", fmt.Sprintf("duplicate shape or entity %q", e.Name))
		}
		seen[e.Name] = true

		switch e.Backend {
		case BackendDynamoDB:
			if e.Table == "" && f.DynamoDB.Table == "" {
				return errors.NewValidationError("table", fmt.Sprintf("entity %q: no DynamoDB table", e.Name))
			}
		case BackendSQLite:
			if f.SQLite.Path == "" {
				return errors.NewValidationError("sqlite.path", fmt.Sprintf("entity %q: no sqlite database", e.Name))
			}
			if e.Table == "" {
				return errors.NewValidationError("table", fmt.Sprintf("entity %q: no sqlite table", e.Name))
			}
		case BackendMemory:
		default:
			return errors.NewValidationError("backend", fmt.Sprintf("entity %q: unknown backend %q", e.Name, e.Backend))
		}
		if len(e.KeyFields) == 0 {
			return errors.NewValidationError("keyFields", fmt.Sprintf("entity %q: at least one key field is required", e.Name))
		}
	}
	return nil
}

// BuildShapes builds every shape and entity schema in the file, keyed by name.
// Relations may refer to any shape or entity, including themselves.
func (f *File) BuildShapes() (map[string]*schema.Shape, error) {
	decls := make(map[string][]FieldConfig, len(f.Shapes)+len(f.Entities))
	shapes := make(map[string]*schema.Shape, len(decls))
	for _, s := range f.Shapes {
		decls[s.Name] = s.Fields
		shapes[s.Name] = &schema.Shape{Name: s.Name}
	}
	for _, e := range f.Entities {
		decls[e.Name] = e.Fields
		shapes[e.Name] = &schema.Shape{Name: e.Name}
	}

	for name, fieldDecls := range decls {
		fields := make([]schema.Field, 0, len(fieldDecls))
		for _, fd := range fieldDecls {
			field, err := buildField(name, fd, shapes)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		built, err := schema.New(name, fields...)
		if err != nil {
			return nil, err
		}
		*shapes[name] = *built
	}
	return shapes, nil
}

func buildField(owner string, fd FieldConfig, shapes map[string]*schema.Shape) (schema.Field, error) {
	switch {
	case fd.Relation != "" && fd.Type != "":
		return schema.Field{}, errors.NewInvalidShapeError(owner, fmt.Sprintf("field %q has both a type and a relation", fd.Name))
	case fd.Relation != "":
		related, ok := shapes[fd.Relation]
		if !ok {
			return schema.Field{}, errors.NewInvalidShapeError(owner, fmt.Sprintf("field %q refers to unknown shape %q", fd.Name, fd.Relation))
		}
		if fd.Many {
			return schema.Many(fd.Name, related), nil
		}
		return schema.One(fd.Name, related), nil
	case fd.Type == "":
		return schema.Field{}, errors.NewInvalidShapeError(owner, fmt.Sprintf("field %q has no type", fd.Name))
	case fd.Many:
		return schema.Scalar(fd.Name, "[]"+fd.Type), nil
	}
	return schema.Scalar(fd.Name, fd.Type), nil
}
