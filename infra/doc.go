// Package infra contains technical adapters such as metrics exporters,
// artifact stores and error monitors. These packages should depend only on
// the interfaces defined in the core packages.
package infra
