package domain

import "github.com/google/uuid"

type ActorKind string

const (
	ActorStudent ActorKind = "student"
	ActorTeacher ActorKind = "teacher"
	ActorAdmin   ActorKind = "admin"
)

// Actor is the authenticated identity acting on a request. It is resolved by
// the auth middleware and passed explicitly into every service operation;
// services never consult ambient session state.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Kind  ActorKind `json:"kind"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// IsStudent reports whether the actor is a student account.
func (a *Actor) IsStudent() bool { return a.Kind == ActorStudent }

// IsTeacher reports whether the actor is a teacher account.
func (a *Actor) IsTeacher() bool { return a.Kind == ActorTeacher }

// IsAdmin reports whether the actor is an admin account.
func (a *Actor) IsAdmin() bool { return a.Kind == ActorAdmin }
