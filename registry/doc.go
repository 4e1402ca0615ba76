/*
Package registry resolves entity names to client bindings.

A Binding ties an entity to the backend client that serves it, its ordered key
fields and its full record shape:

	registry.MustRegister(registry.Binding{
	    Entity:    "Employee",
	    Client:    employeeSheet,
	    KeyFields: []string{"id"},
	    Schema:    schema.MustOf[Employee](),
	})

Resolve is a pure lookup. An unknown entity yields a local resolution error
(errors.ErrEntityNotFound) that never goes through foreign error reclassification.

The registry is thread-safe and should be populated during initialization,
typically in init() functions, from configuration, or through generated code.
*/
package registry
