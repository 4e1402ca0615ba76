/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/persist/schema"
)

// Coerce converts a raw cell value to the Go representation of typeName.
//
//	string     -> string
//	int        -> int64
//	float      -> float64
//	decimal    -> string (exact text, no float rounding)
//	boolean    -> bool
//	date-time  -> strfmt.DateTime
//	date       -> strfmt.Date
//	bytes      -> []byte
//	[]<scalar> -> []any with each element coerced
//
// Unknown type names, relation types and nil values pass through unchanged.
// Empty strings coerce to nil for every non-string type.
func Coerce(raw any, typeName string) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if elem, ok := strings.CutPrefix(typeName, "[]"); ok {
		items, isSlice := raw.([]any)
		if !isSlice || !isScalar(elem) {
			return raw, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := Coerce(item, elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}
	if s, ok := raw.(string); ok && s == "" && typeName != schema.TypeString {
		return nil, nil
	}

	switch typeName {
	case schema.TypeString:
		return toString(raw), nil
	case schema.TypeInt:
		return toInt(raw)
	case schema.TypeFloat:
		return toFloat(raw)
	case schema.TypeDecimal:
		return toDecimal(raw)
	case schema.TypeBoolean:
		return toBool(raw)
	case schema.TypeDateTime:
		return toDateTime(raw)
	case schema.TypeDate:
		return toDate(raw)
	case schema.TypeBytes:
		return toBytes(raw)
	}
	return raw, nil
}

// CoerceRecord coerces every member of record named in typeMap, in place.
func CoerceRecord(record Record, typeMap map[string]string) error {
	for name, typeName := range typeMap {
		raw, ok := record[name]
		if !ok {
			continue
		}
		v, err := Coerce(raw, typeName)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		record[name] = v
	}
	return nil
}

func isScalar(typeName string) bool {
	switch typeName {
	case schema.TypeString, schema.TypeInt, schema.TypeFloat, schema.TypeDecimal,
		schema.TypeBoolean, schema.TypeDateTime, schema.TypeDate, schema.TypeBytes:
		return true
	}
	return false
}

func toString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

func toInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce %v to int: not a whole number", v)
		}
		return int64(v), nil
	case []byte:
		return toInt(string(v))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to int: %w", v, err)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to int", raw)
}

func toFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case []byte:
		return toFloat(string(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to float: %w", v, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to float", raw)
}

func toDecimal(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("cannot coerce %q to decimal: %w", v, err)
		}
		return s, nil
	case []byte:
		return toDecimal(string(v))
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to decimal", raw)
}

func toBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to boolean: %w", v, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to boolean", raw)
}

func toDateTime(raw any) (any, error) {
	switch v := raw.(type) {
	case strfmt.DateTime:
		return v, nil
	case time.Time:
		return strfmt.DateTime(v), nil
	case []byte:
		return toDateTime(string(v))
	case string:
		dt, err := strfmt.ParseDateTime(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to date-time: %w", v, err)
		}
		return dt, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to date-time", raw)
}

func toDate(raw any) (any, error) {
	switch v := raw.(type) {
	case strfmt.Date:
		return v, nil
	case time.Time:
		return strfmt.Date(v), nil
	case []byte:
		return toDate(string(v))
	case string:
		t, err := time.Parse(strfmt.RFC3339FullDate, strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to date: %w", v, err)
		}
		return strfmt.Date(t), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to date", raw)
}

func toBytes(raw any) (any, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to bytes", raw)
}
