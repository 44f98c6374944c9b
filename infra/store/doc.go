// Package store persists trained model artifacts. DirStore keeps one JSON
// file per artifact in a directory and SQLiteStore keeps them in a single
// table. Both implement prediction.Store.
package store
