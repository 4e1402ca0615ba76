/*
Package sqlite provides a SQL implementation of the datastore.Client read contract.

Each entity maps to one table; record members map to columns of the same name.
Open uses the pure-Go modernc.org/sqlite driver, while New accepts any
*sql.DB, so other database/sql drivers work as long as they accept "?"
placeholders and double-quoted identifiers.

	c, err := sqlite.Open(ctx, sqlite.Config{Path: "hr.db", Table: "employees"},
	    sqlite.WithKeyFields("id"),
	)
	defer c.Close()

Rows are streamed straight from the result set; the stream holds a connection
until it is drained or closed.
*/
package sqlite
