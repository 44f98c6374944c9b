// Package events defines the events published on the event bus.
//
// Available event types:
//   - PredictionServed: an ETA was returned to a caller
//   - ModelTrained: a training run finished, optionally with test metrics
//   - RequestFailed: an HTTP request was rejected or failed
package events
