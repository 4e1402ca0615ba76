/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/persist/errors"
)

var (
	project = MustNew("Project",
		Scalar("code", TypeString),
		Scalar("title", TypeString),
	)
	department = MustNew("Department",
		Scalar("deptId", TypeString),
		Scalar("label", TypeString),
	)
	employee = MustNew("Employee",
		Scalar("id", TypeString),
		Scalar("org", TypeString),
		Scalar("name", TypeString),
		Scalar("salary", TypeDecimal),
		Scalar("hired", TypeDate),
		One("department", department),
		Many("projects", project),
	)
)

func TestExtract(t *testing.T) {
	t.Run("MissingKeysAppended", func(t *testing.T) {
		requested, err := employee.Project("name", "salary")
		require.NoError(t, err)

		augmented, md, err := Extract(requested, []string{"id"}, employee)
		require.NoError(t, err)

		assert.Equal(t, []string{"name", "salary", "id"}, augmented.Names())
		assert.Equal(t, []string{"name", "salary"}, md.Fields)
		assert.Empty(t, md.Includes)
		assert.Empty(t, md.TypeDescriptions)
		assert.Equal(t, map[string]string{
			"name":   TypeString,
			"salary": TypeDecimal,
			"id":     TypeString,
		}, md.TypeMap)
	})

	t.Run("PresentKeysKeepTheirPosition", func(t *testing.T) {
		requested, err := employee.Project("name", "id", "org")
		require.NoError(t, err)

		augmented, _, err := Extract(requested, []string{"org", "id"}, employee)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "id", "org"}, augmented.Names())
	})

	t.Run("CompositeKeyAppendedInKeyOrder", func(t *testing.T) {
		requested, err := employee.Project("name")
		require.NoError(t, err)

		augmented, _, err := Extract(requested, []string{"org", "id"}, employee)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "org", "id"}, augmented.Names())
	})

	t.Run("RepeatedKeyAppendedOnce", func(t *testing.T) {
		requested, err := employee.Project("name")
		require.NoError(t, err)

		augmented, md, err := Extract(requested, []string{"id", "id"}, employee)
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "id"}, augmented.Names())
		assert.Len(t, md.TypeMap, 2)

		_, err = New(augmented.Name, augmented.Fields...)
		assert.NoError(t, err, "augmented shape keeps unique names")
	})

	t.Run("RelationsBecomeIncludes", func(t *testing.T) {
		requested, err := employee.Project("projects", "name", "department")
		require.NoError(t, err)

		_, md, err := Extract(requested, []string{"id"}, employee)
		require.NoError(t, err)

		assert.Equal(t, []string{"name"}, md.Fields)
		assert.Equal(t, []string{"projects", "department"}, md.Includes)
		require.Len(t, md.TypeDescriptions, 2)
		assert.Same(t, project, md.TypeDescriptions[0])
		assert.Same(t, department, md.TypeDescriptions[1])
		assert.Equal(t, "[]Project", md.TypeMap["projects"])
		assert.Equal(t, "Department", md.TypeMap["department"])
	})

	t.Run("EmptyShape", func(t *testing.T) {
		requested := MustNew("Employee")

		augmented, md, err := Extract(requested, nil, employee)
		require.NoError(t, err)
		assert.Empty(t, augmented.Fields)
		assert.NotNil(t, md.Fields)
		assert.NotNil(t, md.Includes)
		assert.Empty(t, md.Fields)
		assert.Empty(t, md.Includes)
	})

	t.Run("Idempotent", func(t *testing.T) {
		requested, err := employee.Project("department", "name", "hired")
		require.NoError(t, err)

		a1, md1, err := Extract(requested, []string{"org", "id"}, employee)
		require.NoError(t, err)
		a2, md2, err := Extract(requested, []string{"org", "id"}, employee)
		require.NoError(t, err)

		assert.Equal(t, a1, a2)
		assert.Equal(t, md1, md2)
	})

	t.Run("RequestedShapeUntouched", func(t *testing.T) {
		requested, err := employee.Project("name")
		require.NoError(t, err)

		_, _, err = Extract(requested, []string{"id"}, employee)
		require.NoError(t, err)
		assert.Equal(t, []string{"name"}, requested.Names())
	})

	t.Run("UnknownKeyField", func(t *testing.T) {
		requested, err := employee.Project("name")
		require.NoError(t, err)

		_, _, err = Extract(requested, []string{"badge"}, employee)
		require.Error(t, err)
		assert.True(t, errors.IsLocal(err))
		assert.ErrorIs(t, err, errors.ErrInvalidShape)
	})

	t.Run("RelationKeyField", func(t *testing.T) {
		requested, err := employee.Project("name")
		require.NoError(t, err)

		_, _, err = Extract(requested, []string{"department"}, employee)
		assert.ErrorIs(t, err, errors.ErrInvalidShape)
	})

	t.Run("NilShape", func(t *testing.T) {
		_, _, err := Extract(nil, []string{"id"}, employee)
		assert.ErrorIs(t, err, errors.ErrInvalidShape)
	})
}

func TestShape(t *testing.T) {
	t.Run("DuplicateField", func(t *testing.T) {
		_, err := New("Dup", Scalar("a", TypeString), Scalar("a", TypeInt))
		assert.Error(t, err)
	})

	t.Run("RelationWithoutShape", func(t *testing.T) {
		_, err := New("Broken", Field{Name: "x", Relation: true})
		assert.Error(t, err)
	})

	t.Run("ProjectUnknown", func(t *testing.T) {
		_, err := employee.Project("nope")
		assert.Error(t, err)
	})

	t.Run("String", func(t *testing.T) {
		s := MustNew("Team", Scalar("id", TypeString), Many("members", employee))
		assert.Equal(t, "Team{id:string, members:[]Employee}", s.String())
	})
}
