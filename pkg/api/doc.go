// Package api defines the canonical request, result, and error types shared
// by all gateway components.
//
// Every type here is scoped to a single inbound request: the gateway holds no
// state across requests, and a ChatResult is immutable once constructed.
package api
