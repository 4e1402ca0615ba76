/*
Package persist dispatches entity reads to the backend registered for each
entity and hands results back in a uniform shape.

A read names an entity and the record shape the caller wants. The dispatcher
resolves the entity's client binding, appends any key fields the shape lacks,
computes the field, include and type metadata the backend needs, and runs one
of three backend reads:
  - Scan: the backend's query read, returned as a ResultStream
  - TableScan: the backend's raw table read, returned as a ResultStream
  - LookupByKey: a single record, or an error

Deferred Errors:
Scan and TableScan never return an error directly. A failure is carried inside
the ResultStream and raised by the first Next call, so every consumer handles
failures in one place:

	rs := d.Scan(ctx, "Employee", shape)
	defer rs.Close()
	for {
	    record, err := rs.Next(ctx)
	    if err == io.EOF {
	        break
	    }
	    if err != nil {
	        return err // always an *errors.Error
	    }
	    ...
	}

Error Classification:
Every error leaving the dispatcher is an *errors.Error. Failures raised before a
backend is called are local; errors a backend reports as *errors.Error pass
through unchanged; anything else is reclassified as foreign with the same
message and the original error as its cause.

Typed Reads:
Entity[T] derives the requested shape from a struct and decodes records into it:

	employees, _ := persist.For[Employee](d, "Employee")
	all, err := employees.All(ctx)
	one, err := employees.Get(ctx, "e-42")

Backends live under datastore/: ddb (DynamoDB), sqlite, and mock for tests.
The config package builds bindings from a YAML file.
*/
package persist
