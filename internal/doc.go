// Package internal documents the places service internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, pagination and routing
// - domain/places: places, accepts, ratings and images with their cascade rules
// - storage/postgres: pgx repositories, goqu query building and migrations
// - clients: Auth, Media and Stats service clients
// - auth, audit, cache, config, metrics, sanitize, telemetry, validation: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
