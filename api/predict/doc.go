// Package predict exposes the prediction service over HTTP.
package predict
