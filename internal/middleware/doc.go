// Package middleware provides the HTTP middleware for the campusfeed API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery: request tagging, access log, panic guard
//   - CORS, Compress: browser access and gzip, websocket upgrades excluded
//   - Session: resolves the session cookie to an authz.Principal
//   - RequireSession, RequireAdmin: reject anonymous or non-admin callers
//   - RateLimit: token bucket per account, or per client address
//   - Idempotency: replays the first successful response for a repeated
//     Idempotency-Key on authenticated POSTs
//
// # Context Values
//
// Handlers read what the middleware resolved through:
//
//	p, ok := middleware.GetPrincipal(r.Context())
//	sess := middleware.GetSession(r.Context())
//	id := middleware.GetRequestID(r.Context())
package middleware
