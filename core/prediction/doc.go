// Package prediction orchestrates the ETA pipeline: it trains the feature
// engineer and both regression models, serves single-trip estimates with a
// confidence interval and an additive factor breakdown, and snapshots the
// trained state as named artifacts.
//
// A trained Predictor is immutable and safe for concurrent Predict calls.
// Train must not run concurrently with any other method.
package prediction
