// Package monitoring adapts Sentry to the core monitoring interface.
package monitoring
