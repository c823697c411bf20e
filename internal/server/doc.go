// Package server hosts the Fiber HTTP service that fronts the caches: the
// request-ID and access-log middleware, the static resource handler backed by
// the file content cache, and the CacheRegistry that builds every cache from
// config. Routes under /-/ live in the routes subpackage so they can be
// mounted after NewApp, keeping this package free of diagnostics concerns.
package server
