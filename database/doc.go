// Package database manages the bun connection (MySQL, PostgreSQL or SQLite),
// its configuration and environment overrides, query hooks for logging and
// Prometheus metrics, the model registry, versioned migrations, health checks
// and driver error classification.
package database
