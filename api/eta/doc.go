// Package eta exposes the predictor over HTTP.
//
//	GET  /             service status
//	GET  /health       service status
//	GET  /zones        zone grid
//	POST /predict_eta  trip duration estimate
//	GET  /model/info   training metadata and top feature importances
package eta
