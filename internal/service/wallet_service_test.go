package service

import (
	"errors"
	"testing"

	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newWalletFixture(t *testing.T) (*WalletService, *testutil.MockWalletRepository, *testutil.MockTeacherRepository, *testutil.MockStudentRepository, *domain.Event) {
	t.Helper()

	walletRepo := testutil.NewMockWalletRepository()
	eventRepo := testutil.NewMockEventRepository()
	teacherRepo := testutil.NewMockTeacherRepository()
	studentRepo := testutil.NewMockStudentRepository()
	service := NewWalletService(walletRepo, eventRepo, teacherRepo, studentRepo)

	event := &domain.Event{Name: "Autumn Festival 2026", BudgetLimit: decimal.NewFromInt(100000)}
	eventRepo.Create(event)

	return service, walletRepo, teacherRepo, studentRepo, event
}

func TestCreateWallet_BudgetsMustFitEvent(t *testing.T) {
	service, _, _, _, event := newWalletFixture(t)

	if _, err := service.Create(event.ID, "Class 2-A", decimal.NewFromInt(60000)); err != nil {
		t.Fatalf("first wallet: %v", err)
	}
	if _, err := service.Create(event.ID, "Class 2-B", decimal.NewFromInt(50000)); !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got: %v", err)
	}
	if _, err := service.Create(event.ID, "Class 2-B", decimal.NewFromInt(40000)); err != nil {
		t.Errorf("expected wallet within remaining budget to succeed, got: %v", err)
	}
}

func TestAddTeacher(t *testing.T) {
	service, walletRepo, teacherRepo, _, event := newWalletFixture(t)

	wallet, _ := service.Create(event.ID, "Class 2-A", decimal.NewFromInt(50000))
	teacher, _ := teacherRepo.Create(&domain.Teacher{Name: "Sensei", AuthID: "auth0|sensei"})

	if err := service.AddTeacher(wallet.ID, teacher.ID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	isTeacher, _ := walletRepo.IsTeacher(wallet.ID, teacher.ID)
	if !isTeacher {
		t.Error("expected teacher assigned to wallet")
	}
}

func TestAddTeacher_UnknownTeacher(t *testing.T) {
	service, _, _, studentRepo, event := newWalletFixture(t)

	wallet, _ := service.Create(event.ID, "Class 2-A", decimal.NewFromInt(50000))
	student, _ := studentRepo.Create(&domain.Student{Name: "Hanako", AuthID: "auth0|hanako"})

	// a student id is not a teacher id
	if err := service.AddTeacher(wallet.ID, student.ID); !errors.Is(err, domain.ErrTeacherNotFound) {
		t.Errorf("expected ErrTeacherNotFound, got: %v", err)
	}
}

func TestAddAccountantStudent(t *testing.T) {
	service, _, _, studentRepo, event := newWalletFixture(t)

	wallet, _ := service.Create(event.ID, "Class 2-A", decimal.NewFromInt(50000))
	student, _ := studentRepo.Create(&domain.Student{Name: "Taro", AuthID: "auth0|taro"})

	if err := service.AddAccountantStudent(wallet.ID, student.ID); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}
