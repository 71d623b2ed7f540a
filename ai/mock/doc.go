// Package mock provides deterministic test doubles for the ai interfaces.
// Default behaviors are pure functions of their inputs so tests stay
// reproducible without a running model server.
package mock
