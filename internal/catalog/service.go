// internal/catalog/service.go
package catalog

// Repository resolves routes and trips by identifier.
// The catalog is read-only after seeding; only seat state inside a Trip changes.
type Repository interface {
	Get(id string) (*Trip, bool)
	All() []*Trip
	Routes() []Route
}
