package events

import "time"

// SubgraphCallStart is emitted before a Subgraph Resolver HTTP round trip.
type SubgraphCallStart struct {
	Subgraph string
	Method   string
	URL      string
}

// SubgraphCallFinish is emitted after a Subgraph Resolver HTTP round trip
// completes, whether or not it produced a 2xx response.
type SubgraphCallFinish struct {
	Subgraph string
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}
