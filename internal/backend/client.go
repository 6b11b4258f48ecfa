// Package backend is a minimal query-builder client for the hosted
// PostgREST-style data API. The service never opens a SQL connection;
// every read and write in the system goes through this package.
package backend

import "net/http"

const defaultTimeout = 0 // rely on per-request contexts, not a client deadline

// Client talks to one hosted project. Safe for concurrent use.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// New creates a client for the given project URL and anonymous key.
// The key is sent both as the apikey header and as a bearer token,
// which is how the hosted API expects anonymous access.
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{
		client: c,
		table:  table,
		method: http.MethodGet,
	}
}
