// Package app wires configuration, model artifacts, metrics and the HTTP
// API into runnable pipelines for the CLI.
package app
