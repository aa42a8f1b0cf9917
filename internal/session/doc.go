// Package session implements server-side sessions keyed by opaque tokens.
//
// A token moves through three states: before Issue it is unknown
// (Unauthenticated), after Issue it resolves to an account id (Active) and
// after Destroy or expiry it never resolves again (Destroyed). Destroy is
// idempotent.
//
// Records live in a Store: MemoryStore for single-instance deployments
// and tests, RedisStore when REDIS_ADDR is configured. MemoryStore rejects
// expired records on Load and jobs.SessionSweeper calls Sweep to reclaim
// them. The browser only ever sees the token inside an HS256-signed
// cookie (see pkg/jwt).
package session
