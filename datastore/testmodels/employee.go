/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds entity types shared by tests.
package testmodels

import "github.com/go-openapi/strfmt"

type Employee struct {

	// Unique identifier for the employee.
	// Required: true
	ID *string `json:"id" persist:",key"`

	// Display name.
	// Required: true
	Name *string `json:"name"`

	// Level in the career ladder.
	Level int64 `json:"level,omitempty"`

	// Annual salary, kept as exact decimal text.
	Salary string `json:"salary,omitempty" persist:",type=decimal"`

	// Timestamp when the employee was hired.
	// Format: date-time
	HiredAt *strfmt.DateTime `json:"hiredAt,omitempty"`

	// projects the employee is assigned to
	Projects []Project `json:"projects,omitempty"`
}

type Project struct {

	// Project code.
	// Required: true
	Code string `json:"code"`

	// Project title.
	Title string `json:"title,omitempty"`
}
