// Package http exposes the dropplan services over a JSON REST API.
//
// Routing uses gorilla/mux. Every route except login, health and metrics runs
// behind RequireSession, which resolves the session token from the
// Authorization header, the X-Session-Token header or the session_token
// cookie and attaches the principal to the request context. Handlers decode
// requests, call exactly one application service method and map application
// error kinds onto status codes through the responder.
//
// Hours are rendered as strings with two decimals, calendar days as
// YYYY-MM-DD and instants as RFC 3339 with nanoseconds.
package http
