/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
)

// shapeCache holds one Shape per Go type; derivation happens once per type.
var shapeCache sync.Map // map[reflect.Type]*Shape

var (
	timeType     = reflect.TypeOf(time.Time{})
	dateTimeType = reflect.TypeOf(strfmt.DateTime{})
	dateType     = reflect.TypeOf(strfmt.Date{})
)

// Of returns the Shape of struct type T.
//
// Member names come from the `persist` tag, then the `json` tag, then the Go
// field name. A `type=` option in the persist tag overrides the inferred type
// name. Fields tagged `persist:"-"` are skipped. Struct and slice-of-struct
// members become relations. The `key` option marks key members; see KeysOf.
//
//	type Employee struct {
//	    ID     string      `persist:"id,key"`
//	    Hired  strfmt.Date `persist:"hired"`
//	    Salary string      `persist:"salary,type=decimal"`
//	    Team   *Team       `persist:"team"`
//	}
func Of[T any]() (*Shape, error) {
	return ShapeOf(reflect.TypeOf((*T)(nil)).Elem())
}

// MustOf is Of for package-level declarations.
func MustOf[T any]() *Shape {
	s, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// ShapeOf derives the Shape of a struct type (or pointer to one).
func ShapeOf(t reflect.Type) (*Shape, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", t)
	}
	if s, ok := shapeCache.Load(t); ok {
		return s.(*Shape), nil
	}
	s, err := derive(t, make(map[reflect.Type]*Shape))
	if err != nil {
		return nil, err
	}
	actual, _ := shapeCache.LoadOrStore(t, s)
	return actual.(*Shape), nil
}

func derive(t reflect.Type, visiting map[reflect.Type]*Shape) (*Shape, error) {
	if s, ok := visiting[t]; ok {
		// self-referencing types share the shape being built
		return s, nil
	}
	if s, ok := shapeCache.Load(t); ok {
		return s.(*Shape), nil
	}
	s := &Shape{Name: t.Name()}
	visiting[t] = s

	seen := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, typeOverride, _, skip := parseTag(sf)
		if skip {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("schema: %s declares %q twice", t, name)
		}
		seen[name] = struct{}{}

		f, err := fieldOf(name, sf.Type, visiting)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", t, sf.Name, err)
		}
		if typeOverride != "" && !f.Relation {
			f.Type = typeOverride
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func fieldOf(name string, t reflect.Type, visiting map[reflect.Type]*Shape) (Field, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if scalar, ok := scalarName(t); ok {
		return Scalar(name, scalar), nil
	}
	switch t.Kind() {
	case reflect.Struct:
		related, err := derive(t, visiting)
		if err != nil {
			return Field{}, err
		}
		return One(name, related), nil
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		for elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if scalar, ok := scalarName(elem); ok {
			return Scalar(name, "[]"+scalar), nil
		}
		if elem.Kind() == reflect.Struct {
			related, err := derive(elem, visiting)
			if err != nil {
				return Field{}, err
			}
			return Many(name, related), nil
		}
	}
	return Field{}, fmt.Errorf("unsupported kind %s", t.Kind())
}

func scalarName(t reflect.Type) (string, bool) {
	switch t {
	case timeType, dateTimeType:
		return TypeDateTime, true
	case dateType:
		return TypeDate, true
	}
	switch t.Kind() {
	case reflect.String:
		return TypeString, true
	case reflect.Bool:
		return TypeBoolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInt, true
	case reflect.Float32, reflect.Float64:
		return TypeFloat, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return TypeBytes, true
		}
	}
	return "", false
}

func parseTag(sf reflect.StructField) (name, typeOverride string, key, skip bool) {
	name = sf.Name
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if n, _, _ := strings.Cut(tag, ","); n == "-" {
			skip = true
		} else if n != "" {
			name = n
		}
	}
	tag, ok := sf.Tag.Lookup("persist")
	if !ok {
		return name, "", false, skip
	}
	parts := strings.Split(tag, ",")
	switch parts[0] {
	case "-":
		return "", "", false, true
	case "":
	default:
		name = parts[0]
	}
	skip = false
	for _, opt := range parts[1:] {
		if v, found := strings.CutPrefix(opt, "type="); found {
			typeOverride = v
		} else if opt == "key" {
			key = true
		}
	}
	return name, typeOverride, key, skip
}

type keyInfo struct {
	names []string
	index []int
}

// keyCache holds the key members of each Go type.
var keyCache sync.Map // map[reflect.Type]keyInfo

func keysOf(t reflect.Type) keyInfo {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return keyInfo{}
	}
	if k, ok := keyCache.Load(t); ok {
		return k.(keyInfo)
	}
	var k keyInfo
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if name, _, key, skip := parseTag(sf); key && !skip {
			k.names = append(k.names, name)
			k.index = append(k.index, i)
		}
	}
	actual, _ := keyCache.LoadOrStore(t, k)
	return actual.(keyInfo)
}

// KeysOf returns the members of T tagged with the `key` option, in
// declaration order. Order is the key path order for lookups.
func KeysOf[T any]() []string {
	return append([]string(nil), keysOf(reflect.TypeOf((*T)(nil)).Elem()).names...)
}

// KeyPathOf returns the values of v's key members, in KeysOf order. Nil
// pointers yield nil components.
func KeyPathOf(v any) []any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	k := keysOf(rv.Type())
	path := make([]any, 0, len(k.index))
	for _, i := range k.index {
		fv := rv.Field(i)
		for fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Ptr {
			path = append(path, nil)
			continue
		}
		path = append(path, fv.Interface())
	}
	return path
}
