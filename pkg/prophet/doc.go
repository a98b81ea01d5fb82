// Package prophet provides types, interfaces, and helpers for working with the
// Prophet flow search and tenant management API.
//
// # Overview
//
// The prophet package defines the domain types (Flow, FlowPage, Deployment),
// the PQL query builder, time filters, the error taxonomy, and the
// interfaces for the resource clients (FlowsClient, DeploymentsClient). A
// concrete implementation is provided by the prophetclient package, which
// wires configuration, transport and OAuth2 client credentials.
//
// Getting a client
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
//	  cli, err := prophetclient.New(&prophet.Config{
//	    BaseURL:      "https://api.prophet.io",
//	    ClientID:     "my-client",
//	    ClientSecret: "my-secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  it, err := cli.Flows().Query(&prophet.FlowQuery{
//	    Instances: []string{"instance-1"},
//	    Builder:   prophet.Q("dst.port").Eq(443).And("bytes").Gt(1000),
//	    Start:     prophet.HoursAgo(24),
//	    End:       prophet.Now(),
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  for flow, err := range it.Take(500).Seq(ctx) {
//	    if err != nil { log.Fatal(err) }
//	    log.Println(flow)
//	  }
//	}
//
// # Pagination
//
// FlowIterator is lazy: nothing is requested until it is consumed, and pages
// are fetched one at a time in order. Record-level access (Next, Seq,
// ForEach, Collect) and page-level access (First, NextPage) share a single
// cursor. Take caps the number of records without fetching further pages.
//
// # Errors
//
// Every failed call returns exactly one of AuthenticationError,
// ValidationError, APIError, ConnectionError or TimeoutError, possibly
// wrapped. Use errors.As, or the IsUnauthorized/IsNotFound/IsValidation
// helpers. Nothing is retried automatically unless Config.RetryMax is set.
package prophet
