// Package wenuclient provides the primary entry point for constructing a
// gateway to an Eve-style REST API that implements the wenu.Gateway
// interface.
//
// It layers endpoint normalization, HTTP transport, authentication and
// resource discovery on top of the record model defined in the wenu package.
// Most applications import wenuclient to connect, then use the returned
// wenu.Gateway to look up resources by name.
//
// Quick start
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
//
//	  // Minimal: just an API endpoint (no auth).
//	  gw, err := wenuclient.NewWithEndpoint(ctx, "https://api.example.com")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or exchange credentials for a session token:
//	  gw, err = wenuclient.NewWithPassword(ctx, "https://api.example.com", "user", "pass")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or reuse a token handed over out of band:
//	  gw, err = wenuclient.NewWithToken(ctx, "https://api.example.com", "token")
//	  if err != nil { log.Fatal(err) }
//
//	  sensors, err := gw.Resource("SensorData")
//	  if err != nil { log.Fatal(err) }
//
//	  rows := sensors.Where(ctx, wenu.Fields{"status": "active"}, "")
//	  for rows.Next() {
//	    log.Println(rows.Entity())
//	  }
//	  if err := rows.Err(); err != nil { log.Fatal(err) }
//	}
//
// Configuration
//
// New accepts a *wenu.Config. The endpoint is normalized: a trailing slash
// is removed and https:// is added when no scheme is given. Credentials are
// chosen in this order: AccessToken, then Username/Password (exchanged at
// TokenURL, by default "<endpoint>/login"), then none. Discovery happens
// inside New; a failing root request is reported as *wenu.DiscoveryError.
//
// Registration
//
// Register posts a username/password form and reports whether the server
// created the account.
package wenuclient
