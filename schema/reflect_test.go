/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBadge struct {
	Serial string `json:"serial"`
}

type testPerson struct {
	ID       string          `json:"id"`
	Name     *string         `json:"name"`
	Age      int             `persist:"age"`
	Rating   float64         `json:"rating"`
	Active   bool            `json:"active"`
	Salary   string          `persist:"salary,type=decimal"`
	Joined   time.Time       `json:"joined"`
	Updated  strfmt.DateTime `json:"updated"`
	Birthday strfmt.Date     `json:"birthday"`
	Tags     []string        `json:"tags"`
	Badge    *testBadge      `json:"badge"`
	Friends  []testPerson    `json:"friends"`
	Secret   string          `json:"-"`
	Override string          `json:"-" persist:"override"`
	hidden   string
}

func TestOf(t *testing.T) {
	s, err := Of[testPerson]()
	require.NoError(t, err)

	assert.Equal(t, "testPerson", s.Name)
	assert.Equal(t, []string{
		"id", "name", "age", "rating", "active", "salary", "joined",
		"updated", "birthday", "tags", "badge", "friends", "override",
	}, s.Names())

	types := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		types[f.Name] = f.TypeName()
	}
	assert.Equal(t, TypeString, types["id"])
	assert.Equal(t, TypeString, types["name"])
	assert.Equal(t, TypeInt, types["age"])
	assert.Equal(t, TypeFloat, types["rating"])
	assert.Equal(t, TypeBoolean, types["active"])
	assert.Equal(t, TypeDecimal, types["salary"])
	assert.Equal(t, TypeDateTime, types["joined"])
	assert.Equal(t, TypeDateTime, types["updated"])
	assert.Equal(t, TypeDate, types["birthday"])
	assert.Equal(t, "[]string", types["tags"])
	assert.Equal(t, "testBadge", types["badge"])
	assert.Equal(t, "[]testPerson", types["friends"])

	friends, ok := s.Field("friends")
	require.True(t, ok)
	assert.True(t, friends.Relation)
	assert.Same(t, s, friends.Shape, "self reference should point at the same shape")

	again, err := Of[*testPerson]()
	require.NoError(t, err)
	assert.Same(t, s, again, "shapes are derived once per type")
}

func TestKeysOf(t *testing.T) {
	type assignment struct {
		Hours    int     `persist:"hours"`
		Employee *string `json:"employeeId" persist:",key"`
		Project  string  `persist:"projectCode,key"`
		Note     string  `persist:"-"`
	}

	assert.Equal(t, []string{"employeeId", "projectCode"}, KeysOf[assignment]())
	assert.Empty(t, KeysOf[testBadge]())

	s, err := Of[assignment]()
	require.NoError(t, err)
	assert.Equal(t, []string{"hours", "employeeId", "projectCode"}, s.Names(), "key option does not change the shape")

	emp := "e-1"
	assert.Equal(t, []any{"e-1", "p-1"}, KeyPathOf(assignment{Employee: &emp, Project: "p-1"}))
	assert.Equal(t, []any{nil, "p-1"}, KeyPathOf(&assignment{Project: "p-1"}))
	assert.Nil(t, KeyPathOf((*assignment)(nil)))
}

func TestOfRejectsNonStruct(t *testing.T) {
	_, err := Of[int]()
	assert.Error(t, err)
}

func TestOfUnsupportedKind(t *testing.T) {
	type withMap struct {
		Attrs map[string]string
	}
	_, err := Of[withMap]()
	assert.Error(t, err)
}
