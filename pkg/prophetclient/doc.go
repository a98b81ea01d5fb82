// Package prophetclient provides the primary entry point for constructing a
// Prophet API client that implements the prophet.Client interface.
//
// It layers configuration, the shared HTTP transport and the OAuth2 client
// credentials token manager on top of the interfaces and types defined in
// the prophet package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/prophet/pkg/prophet"
//	  "github.com/fivetwenty-io/prophet/pkg/prophetclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := prophetclient.NewWithClientCredentials("api.prophet.io", "my-client", "my-secret")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  health, err := cli.Health(ctx)
//	  if err != nil { log.Fatal(err) }
//	  log.Println(health.Status)
//
//	  list, err := cli.Deployments().List(ctx, "")
//	  if err != nil { log.Fatal(err) }
//	  for _, d := range list.Deployments {
//	    log.Println(d.Name, d.Status())
//	  }
//	}
//
// Use New with a full prophet.Config to set timeouts, the refresh threshold,
// transport retries, a logger or interceptors.
package prophetclient
