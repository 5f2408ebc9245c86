// Package server exposes the playlist engine as a JSON HTTP API.
//
// # Routing
//
// [Server.Router] builds a chi router. Each resource (auth, users, songs, playlists) is a
// [Handler] that mounts its own routes, so route definitions stay next to their handlers.
//
// [Middleware] wraps handlers in the standard Go pattern: request id, real IP, panic
// recovery, request logging, CORS and per-client rate limiting apply to every route.
//
// # Authentication
//
// Tokens are HS256 JWTs read from the "token" cookie or an "Authorization: Bearer" header.
// [Server.Authenticate] resolves the caller on every request and treats a bad token as a
// guest; [RequireAuth] rejects guests with 401 on mutating routes.
//
// # Responses
//
// Successful responses are {"data": ..., "message": ...}; failures are {"error": ...}.
// Engine errors map onto statuses through the sentinels in the shared package, and
// unexpected errors are logged and reported as a generic 500.
package server
