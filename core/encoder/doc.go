// Package encoder validates prediction requests and assembles the fixed
// order feature vector the price model was trained on.
//
// A request with location -1 did not pick a listed location. Its location
// feature is the mean of every training-time location code, supplied by the
// vocabulary registry. Every other field must be present and numeric; no
// other default is ever substituted.
package encoder
