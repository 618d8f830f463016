// Package regressor defines the trained price model as seen by the service.
// Implementations live in infra/regressor and register themselves by type
// name. A model that is not reentrant is wrapped with Serialized.
package regressor
