// Package state keeps a per-user conversation state and a small scratch
// area, both expiring after a TTL. Backends are in-process memory and Redis.
package state
