/*
Package schema describes record shapes and derives the per-query metadata a backend
needs to answer a read.

A Shape is declared once, when an entity is registered, either by hand:

	employee := schema.MustNew("Employee",
	    schema.Scalar("id", schema.TypeString),
	    schema.Scalar("name", schema.TypeString),
	    schema.Many("projects", project),
	)

or from a Go struct with schema.Of[Employee]() (derived once per type and cached).

Extract turns a requested shape plus the entity's key fields into the augmented
shape and the Metadata (fields, includes, type descriptions, type map) passed to
the backend. It is pure and deterministic.
*/
package schema
