// Package features turns trips into a fixed-schema numeric frame.
//
// An Engineer learns aggregate duration statistics from the training split
// (per zone pair, hour, weekday and zone-type combination) and freezes the
// column set of its first FitTransform. Every later Transform looks the
// statistics up with an explicit fallback for keys unseen during fit and is
// aligned to the frozen Schema: missing one-hot columns are added as zeros
// and unknown ones are dropped, so models always see the same input shape.
package features
