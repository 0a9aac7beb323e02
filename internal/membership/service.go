// internal/membership/service.go
package membership

import "time"

// Repository resolves members by student id.
type Repository interface {
	Get(studentID string) (*Member, bool)
	FindOrCreate(studentID, credential string, now time.Time) (*Member, bool, error)
}
