/*
Package datastore defines the read contract between the query dispatcher and a
tabular backend.

The main interface is Client, which exposes the three reads the dispatcher issues:

	type Client interface {
	    ReadQuery(ctx context.Context, req ReadRequest) (Stream, error)
	    ReadTableAsStream(ctx context.Context, req ReadRequest) (Stream, error)
	    ReadByKey(ctx context.Context, req KeyRequest) (Record, error)
	}

Records are plain map[string]any values. Backends coerce raw cell values with
Coerce / CoerceRecord using the request's TypeMap, since the type information
lives with the caller and not with the backend.

Implementations:
  - ddb: DynamoDB backend (scan paginator, GetItem, key templates)
  - sqlite: SQL backend over database/sql and modernc.org/sqlite
  - mock: In-memory backend for testing
*/
package datastore
