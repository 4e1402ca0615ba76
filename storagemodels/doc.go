/*
Package storagemodels defines the streaming data structures shared by the
dispatcher and the bundled backends.

StreamResult:
A record delivered over a channel, with metadata:

	type StreamResult struct {
	    Item  map[string]any // The record
	    Error error          // Terminal error, if any
	    Meta  StreamMeta     // Index, page, timestamp
	}

StreamOptions:
Configuration for paging, retries and channel buffering:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}

These types provide a consistent interface across different storage implementations.
*/
package storagemodels
