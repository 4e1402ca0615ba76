/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/persist/datastore"
	"github.com/suparena/persist/datastore/sqlite"
	"github.com/suparena/persist/errors"
	"github.com/suparena/persist/registry"
	"github.com/suparena/persist/schema"
)

const hrConfig = `
logging:
  level: debug
  encoding: console
shapes:
  - name: Project
    fields:
      - {name: code, type: string}
      - {name: title, type: string}
entities:
  - name: Employee
    backend: memory
    keyFields: [id]
    fields:
      - {name: id, type: string}
      - {name: name, type: string}
      - {name: level, type: int}
      - {name: skills, type: string, many: true}
      - {name: manager, relation: Employee}
      - {name: projects, relation: Project, many: true}
    rows:
      - {id: e-1, name: Ada, level: "3"}
      - {id: e-2, name: Grace, level: "5"}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(hrConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", f.Logging.Level)
	require.Len(t, f.Entities, 1)
	assert.Equal(t, BackendMemory, f.Entities[0].Backend)
	assert.Equal(t, []string{"id"}, f.Entities[0].KeyFields)
	assert.Len(t, f.Entities[0].Rows, 2)
}

func TestBuildShapes(t *testing.T) {
	f, err := Parse([]byte(hrConfig))
	require.NoError(t, err)

	shapes, err := f.BuildShapes()
	require.NoError(t, err)

	employee := shapes["Employee"]
	require.NotNil(t, employee)
	assert.Equal(t, []string{"id", "name", "level", "skills", "manager", "projects"}, employee.Names())

	skills, _ := employee.Field("skills")
	assert.Equal(t, "[]string", skills.TypeName())

	manager, _ := employee.Field("manager")
	assert.True(t, manager.Relation)
	assert.Same(t, employee, manager.Shape)

	projects, _ := employee.Field("projects")
	assert.Same(t, shapes["Project"], projects.Shape)
	assert.Equal(t, "[]Project", projects.TypeName())
}

func TestBuildShapesErrors(t *testing.T) {
	tests := []struct {
		name  string
		field FieldConfig
	}{
		{"UnknownRelation", FieldConfig{Name: "team", Relation: "Team"}},
		{"TypeAndRelation", FieldConfig{Name: "team", Type: "string", Relation: "Employee"}},
		{"NoType", FieldConfig{Name: "team"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Entities: []EntityConfig{{
				Name: "Employee", Backend: BackendMemory, KeyFields: []string{"id"},
				Fields: []FieldConfig{{Name: "id", Type: "string"}, tt.field},
			}}}
			_, err := f.BuildShapes()
			require.Error(t, err)
			assert.True(t, errors.IsLocal(err))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"MissingName", File{Entities: []EntityConfig{{Backend: BackendMemory, KeyFields: []string{"id"}}}}},
		{"UnknownBackend", File{Entities: []EntityConfig{{Name: "E", Backend: "redis", KeyFields: []string{"id"}}}}},
		{"NoKeyFields", File{Entities: []EntityConfig{{Name: "E", Backend: BackendMemory}}}},
		{"NoDynamoTable", File{Entities: []EntityConfig{{Name: "E", Backend: BackendDynamoDB, KeyFields: []string{"id"}}}}},
		{"NoSQLitePath", File{Entities: []EntityConfig{{Name: "E", Backend: BackendSQLite, Table: "e", KeyFields: []string{"id"}}}}},
		{"Duplicate", File{
			Shapes:   []ShapeConfig{{Name: "E"}},
			Entities: []EntityConfig{{Name: "E", Backend: BackendMemory, KeyFields: []string{"id"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestBuildMemory(t *testing.T) {
	ctx := context.Background()
	f, err := Parse([]byte(hrConfig))
	require.NoError(t, err)

	reg := registry.New()
	backends, err := f.Build(ctx, reg)
	require.NoError(t, err)
	defer backends.Close()

	assert.Equal(t, []string{"Employee"}, reg.Entities())

	b, err := reg.Resolve("Employee")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, b.KeyFields)

	requested, err := b.Schema.Project("level")
	require.NoError(t, err)
	augmented, md, err := schema.Extract(requested, b.KeyFields, b.Schema)
	require.NoError(t, err)

	record, err := b.Client.ReadByKey(ctx, datastore.KeyRequest{
		Entity: "Employee", Target: requested, Shape: augmented, TypeMap: md.TypeMap, Key: "e-2",
	})
	require.NoError(t, err)
	assert.Equal(t, datastore.Record{"id": "e-2", "level": int64(5)}, record)
}

func TestBuildSQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hr.db")

	db, err := sqlite.OpenDB(ctx, dbPath)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE employees (id TEXT PRIMARY KEY, name TEXT);
		INSERT INTO employees VALUES ('e-1', 'Ada');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	f, err := Parse([]byte(`
sqlite:
  path: ` + dbPath + `
entities:
  - name: Employee
    backend: sqlite
    table: employees
    keyFields: [id]
    fields:
      - {name: id, type: string}
      - {name: name, type: string}
`))
	require.NoError(t, err)

	reg := registry.New()
	backends, err := f.Build(ctx, reg)
	require.NoError(t, err)
	defer backends.Close()

	b, err := reg.Resolve("Employee")
	require.NoError(t, err)
	augmented, md, err := schema.Extract(b.Schema, b.KeyFields, b.Schema)
	require.NoError(t, err)

	s, err := b.Client.ReadQuery(ctx, datastore.ReadRequest{Entity: "Employee", Shape: augmented, TypeMap: md.TypeMap, Fields: md.Fields})
	require.NoError(t, err)
	record, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, datastore.Record{"id": "e-1", "name": "Ada"}, record)
	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestBuildDuplicateEntity(t *testing.T) {
	f, err := Parse([]byte(hrConfig))
	require.NoError(t, err)

	reg := registry.New()
	_, err = f.Build(context.Background(), reg)
	require.NoError(t, err)
	_, err = f.Build(context.Background(), reg)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PERSIST_TEST_TABLE=people\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PERSIST_TEST_TABLE") })
	t.Setenv("PERSIST_TEST_REGION", "eu-west-1")

	path := filepath.Join(dir, "persist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dynamodb:
  region: ${PERSIST_TEST_REGION}
  table: ${PERSIST_TEST_TABLE}
entities:
  - name: Employee
    backend: dynamodb
    entityType: Employee
    keyFields: [id]
    keyMap: {PK: "EMPLOYEE#{id}", SK: PROFILE}
    fields:
      - {name: id, type: string}
`), 0o600))

	f, err := Load(path, envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", f.DynamoDB.Region)
	assert.Equal(t, "people", f.DynamoDB.Table)
	assert.Equal(t, map[string]string{"PK": "EMPLOYEE#{id}", "SK": "PROFILE"}, f.Entities[0].KeyMap)

	_, err = Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
