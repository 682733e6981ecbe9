// Package transport provides the middleware chain and error serialization
// for the relais HTTP surface.
//
// The transport layer bridges external clients and the gateway engine. It
// carries the cross-cutting concerns every route shares: panic recovery,
// request ID assignment (X-Request-ID), and structured request logging via
// log/slog. Route handling itself lives in pkg/transport/http.
//
// # Middleware
//
// Middleware here operates at the http.Handler level so it can see the
// method, path, and status code of every exchange, including streaming
// ones. Chain composes middleware in order: the first middleware is the
// outermost wrapper.
//
// # Errors
//
// Every failure leaves the gateway as the same JSON envelope,
// {error, message, details?}, with the HTTP status derived from the
// GatewayError kind. WriteGatewayError is the single place that mapping
// happens.
package transport
