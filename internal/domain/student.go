package domain

import (
	"time"

	"github.com/google/uuid"
)

// Student is a student account. AuthID is the subject claim issued by the
// external identity provider.
type Student struct {
	ID        uuid.UUID `json:"id"`
	AuthID    string    `json:"authId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// StudentRepository defines the interface for student persistence operations
type StudentRepository interface {
	GetByID(id uuid.UUID) (*Student, error)
	GetByAuthID(authID string) (*Student, error)
	Create(student *Student) (*Student, error)
}

// Teacher is a teacher account. Teachers approve purchases for the wallets
// they are assigned to.
type Teacher struct {
	ID        uuid.UUID `json:"id"`
	AuthID    string    `json:"authId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeacherRepository defines the interface for teacher persistence operations
type TeacherRepository interface {
	GetByID(id uuid.UUID) (*Teacher, error)
	GetByAuthID(authID string) (*Teacher, error)
	Create(teacher *Teacher) (*Teacher, error)
}
