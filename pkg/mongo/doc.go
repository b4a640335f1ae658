// Package mongo wires the MongoDB driver into the application: env-driven
// configuration, connection with retry, and a health check for readiness probes.
package mongo
