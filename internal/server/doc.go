// Package server serves the most recent night-course snapshot over HTTP.
//
// Routes:
//
//	GET /                              HTML page (same template as the html export)
//	GET /styles.css                    stylesheet for the page
//	GET /api/night-courses             every semester as JSON
//	GET /api/night-courses/:semester   one semester as JSON
//	GET /healthz                       liveness and snapshot presence
//	GET /metrics                       Prometheus metrics
//
// The snapshot is read from storage on every request, so a concurrent export or list
// run is picked up without a restart.
package server
