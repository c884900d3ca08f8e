package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nishiko/matsuri-backend/internal/domain"
)

// StudentRepository implements domain.StudentRepository using PostgreSQL
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(id uuid.UUID) (*domain.Student, error) {
	return r.getStudent(`SELECT id, auth_id, name, email, created_at FROM students WHERE id = $1`, id)
}

// GetByAuthID retrieves a student by the identity provider's subject
func (r *StudentRepository) GetByAuthID(authID string) (*domain.Student, error) {
	return r.getStudent(`SELECT id, auth_id, name, email, created_at FROM students WHERE auth_id = $1`, authID)
}

// Create creates a new student
func (r *StudentRepository) Create(student *domain.Student) (*domain.Student, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO students (id, auth_id, name, email)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, auth_id, name, email, created_at`,
		student.AuthID, student.Name, student.Email)
	return scanStudent(row)
}

func (r *StudentRepository) getStudent(query string, arg any) (*domain.Student, error) {
	ctx := context.Background()

	student, err := scanStudent(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var student domain.Student
	if err := row.Scan(&student.ID, &student.AuthID, &student.Name, &student.Email, &student.CreatedAt); err != nil {
		return nil, err
	}
	return &student, nil
}

// TeacherRepository implements domain.TeacherRepository using PostgreSQL
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(id uuid.UUID) (*domain.Teacher, error) {
	return r.getTeacher(`SELECT id, auth_id, name, email, created_at FROM teachers WHERE id = $1`, id)
}

// GetByAuthID retrieves a teacher by the identity provider's subject
func (r *TeacherRepository) GetByAuthID(authID string) (*domain.Teacher, error) {
	return r.getTeacher(`SELECT id, auth_id, name, email, created_at FROM teachers WHERE auth_id = $1`, authID)
}

// Create creates a new teacher
func (r *TeacherRepository) Create(teacher *domain.Teacher) (*domain.Teacher, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO teachers (id, auth_id, name, email)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, auth_id, name, email, created_at`,
		teacher.AuthID, teacher.Name, teacher.Email)
	return scanTeacher(row)
}

func (r *TeacherRepository) getTeacher(query string, arg any) (*domain.Teacher, error) {
	ctx := context.Background()

	teacher, err := scanTeacher(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTeacherNotFound
		}
		return nil, err
	}
	return teacher, nil
}

func scanTeacher(row pgx.Row) (*domain.Teacher, error) {
	var teacher domain.Teacher
	if err := row.Scan(&teacher.ID, &teacher.AuthID, &teacher.Name, &teacher.Email, &teacher.CreatedAt); err != nil {
		return nil, err
	}
	return &teacher, nil
}
