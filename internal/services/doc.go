// Package services adapts the external systems the playlist pipeline depends on.
//
// # Interfaces
//
// The pipeline only sees three small interfaces:
//   - [Generator] : prompt in, raw reply text out
//   - [Catalog] : (term, limit) in, ordered tracks out
//   - [Notifier] : fire-and-forget playlist events
//
// # Gemini
//
// [GeminiService] calls generateContent on the Gemini API through
// google.golang.org/genai. The reply is returned verbatim; shaping it into seeds is
// the caller's job.
//
// # Spotify
//
// [SpotifyCatalog] uses the client-credentials grant (no user login) and the
// zmb3/spotify client for track search. Only the first artist and first album
// image are kept.
//
// # Redis
//
// [CachedCatalog] is a read-through cache keyed by normalized term and limit.
// [RedisNotifier] publishes events on a pub/sub channel. Both degrade to
// pass-through behavior when Redis is unavailable.
//
// # Error Handling
//
// Adapters wrap failures with sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : constructor called without keys
//   - [shared.ErrAPIRequest] : upstream call failed or returned nothing usable
//   - [shared.ErrServiceUnavailable] : client could not be built
package services
