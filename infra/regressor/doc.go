// Package regressor provides the model implementations selectable from
// configuration: "linear" and "forest" load exported models from JSON, and
// "remote" calls an external inference server. Importing the package
// registers them with core/regressor.
package regressor
