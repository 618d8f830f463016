// Package vocabulary holds the label encodings the price model was trained
// with. A Registry is built once at startup from the embedded tables (or an
// override file) and is read-only afterwards.
package vocabulary
