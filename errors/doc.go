/*
Package errors defines the persistence error domain used by the query dispatcher.

Every error that reaches a caller is an *Error carrying a Kind:

	KindLocalResolution  // raised here: unknown entity, bad key path, bad shape
	KindBackend          // raised by a backend inside the persistence domain
	KindForeign          // raised outside the domain and reclassified by Normalize

Common sentinels can be matched with the standard errors.Is() or the helpers:

	record, err := d.LookupByKey(ctx, "Employee", shape, "e-42")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("employee %s does not exist", "e-42")
	    }
	    return nil, err
	}

Normalize is the single entry point for bringing arbitrary errors into the domain.
An error that already holds an *Error is returned as is and is never wrapped twice.
*/
package errors
