// Package nusmods fetches the module catalog and per-module timetables from the
// NUSMods API.
//
// The client issues one request for the catalog listing, then fans out one request per
// module over a shared HTTP client and waits for all of them. A module whose request
// fails is logged and reported as absent; it never aborts or cancels the rest of the
// batch. Fetched details can be kept in a TTL cache that the CLI persists between runs.
package nusmods
