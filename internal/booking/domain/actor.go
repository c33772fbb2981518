package domain

import "github.com/google/uuid"

// Role is the capacity in which an actor acts on a booking.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleSystem     Role = "system"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether r is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleSystem, RoleAdmin:
		return true
	}
	return false
}

// Actor is whoever initiates a transition.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor drives time-based transitions.
var SystemActor = Actor{Role: RoleSystem}

// Student returns a student actor.
func Student(id uuid.UUID) Actor { return Actor{ID: id, Role: RoleStudent} }

// Instructor returns an instructor actor.
func Instructor(id uuid.UUID) Actor { return Actor{ID: id, Role: RoleInstructor} }

// Owns reports whether the actor holds its role on b. The system owns every
// booking; admins own none.
func (a Actor) Owns(b *Booking) bool {
	switch a.Role {
	case RoleSystem:
		return true
	case RoleStudent:
		return a.ID != uuid.Nil && a.ID == b.studentID
	case RoleInstructor:
		return a.ID != uuid.Nil && a.ID == b.instructorID
	}
	return false
}
