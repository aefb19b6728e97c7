// Package driving provides interfaces for the application's entry
// points (primary/inbound ports), implemented by the services layer
// and consumed by the HTTP and CLI adapters.
package driving
