// Package cache provides the Redis backed prediction cache. Importing it
// registers the "redis" cache type with core/prediction.
package cache
