/*
Package ddb provides a DynamoDB implementation of the datastore.Client read contract.

Entity reads map onto DynamoDB operations:
  - ReadQuery: paged Scan projected onto the requested fields, optionally
    filtered to one EntityType in a single-table layout
  - ReadTableAsStream: paged Scan of every item and attribute
  - ReadByKey: GetItem

Key Templates:
Table keys can be derived from the entity's key fields with macros:

	c := ddb.New(api, "app-table",
	    ddb.WithEntityType("Employee"),
	    ddb.WithKeyFields("id"),
	    ddb.WithKeyMap(map[string]string{
	        "PK": "EMPLOYEE#{id}", // Becomes "EMPLOYEE#e-42"
	        "SK": "PROFILE",       // Static value
	    }),
	)

Without a key map the key fields are used as the table key attributes.

Paging:
Scans are consumed lazily, one page at a time. Throttling and server errors are
retried per page:

	c := ddb.New(api, "app-table",
	    ddb.WithStreamOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	        storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
	            log.Printf("Processed %d items", p.ItemsProcessed)
	        }),
	    ),
	)

SDK errors are returned as they are; the dispatcher reclassifies them.
*/
package ddb
