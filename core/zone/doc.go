// Package zone models the city grid: every zone id maps to a row, a column
// and a single zone type. Distances between zones are Manhattan distances on
// the grid.
package zone
