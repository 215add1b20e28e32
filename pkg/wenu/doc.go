// Package wenu provides the types, interfaces, and helpers for working with an
// Eve-style REST API whose resource catalog is discovered at runtime.
//
// # Overview
//
// The wenu package defines the record model (Entity), the resource handle
// (Resource), the lazy query result (Rows), the error taxonomy and the
// interceptor chain. A concrete Gateway, which owns the HTTP session and
// performs discovery, is provided by the wenuclient package. Most consumers
// import wenuclient to connect and then work with the handles exposed here.
//
// Getting a gateway
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/wenu-client/pkg/wenu"
//	  "github.com/fivetwenty-io/wenu-client/pkg/wenuclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  gw, err := wenuclient.NewWithPassword(ctx, "https://api.example.com", "user", "pass")
//	  if err != nil { log.Fatal(err) }
//
//	  books, err := gw.Resource("Book")
//	  if err != nil { log.Fatal(err) }
//
//	  all, err := books.List(ctx, "max_results=50")
//	  if err != nil { log.Fatal(err) }
//	  _ = all
//	}
//
// # Queries
//
// Resource.Where and Resource.Embedded encode their arguments as JSON under
// the where= and embedded= query parameters. Raw query options are appended
// verbatim. Both return Rows, which does not touch the network until the
// first call to Next.
//
// # Fields and attributes
//
// An Entity carries the server row in its field mapping and, separately, any
// number of local attributes. Only fields are persisted; Save sends the
// fields whose name does not start with "_" and guards the write with the
// row's _etag.
//
// # Errors
//
// Every non-2xx response is an *HTTPError. IsNotFound, IsConflict and
// IsUnauthorized branch on the common cases.
package wenu
