// Package server exposes the playlist pipeline over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] uses the standard func(http.Handler) http.Handler shape, so chi's own middleware
// (RequestID, RealIP, Recoverer, Timeout) plugs in next to [RequestLogger], [CORS] and [BodyLimit].
//
// The [ChiRouter] implementation wraps chi. [ChiRouter.With] creates an inline group used for the authenticated routes.
//
// # Routes
//
//	GET  /health              liveness
//	GET  /playlist/{id}       single playlist, public
//	POST /generate-playlist   {"mood"} → 201 playlist, auth
//	POST /playlist/{id}/add   {"mood"} → 200 playlist, auth
//	GET  /history             owner's playlists newest first, auth
//
// Errors are JSON objects of the form {"error": "..."} with fixed messages; internal error text is logged, never returned.
//
// # Authentication
//
// [Authenticator] verifies HS256 bearer tokens and puts the subject in the request context as the owner id.
// The CLI token command mints tokens with [Authenticator.Mint].
package server
