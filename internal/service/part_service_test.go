package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newPartFixture(t *testing.T) (*PartService, *testutil.MockPartRepository, *testutil.MockStudentRepository, *domain.Wallet) {
	t.Helper()

	partRepo := testutil.NewMockPartRepository()
	walletRepo := testutil.NewMockWalletRepository()
	studentRepo := testutil.NewMockStudentRepository()
	partRepo.Wallets = walletRepo
	service := NewPartService(partRepo, walletRepo, studentRepo)

	wallet := &domain.Wallet{EventID: uuid.New(), Name: "Class 2-A", BudgetLimit: decimal.NewFromInt(50000)}
	walletRepo.Create(wallet)

	return service, partRepo, studentRepo, wallet
}

func TestCreatePart(t *testing.T) {
	service, _, _, wallet := newPartFixture(t)

	part, err := service.Create(wallet.ID, "Stage", decimal.NewFromInt(30000))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if part.WalletID != wallet.ID {
		t.Errorf("expected wallet ID %s, got %s", wallet.ID, part.WalletID)
	}
}

func TestCreatePart_BudgetsMustFitWallet(t *testing.T) {
	service, _, _, wallet := newPartFixture(t)

	if _, err := service.Create(wallet.ID, "Stage", decimal.NewFromInt(30000)); err != nil {
		t.Fatalf("first part: %v", err)
	}
	// 30000 + 15000 fits within 50000
	if _, err := service.Create(wallet.ID, "Food stall", decimal.NewFromInt(15000)); err != nil {
		t.Fatalf("second part: %v", err)
	}
	// 30000 + 15000 + 10000 exceeds 50000
	if _, err := service.Create(wallet.ID, "Decorations", decimal.NewFromInt(10000)); !errors.Is(err, domain.ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got: %v", err)
	}
	// the remaining 5000 is still available
	if _, err := service.Create(wallet.ID, "Decorations", decimal.NewFromInt(5000)); err != nil {
		t.Errorf("expected part within remaining budget to succeed, got: %v", err)
	}
}

func TestCreatePart_EmptyName(t *testing.T) {
	service, _, _, wallet := newPartFixture(t)

	if _, err := service.Create(wallet.ID, "  ", decimal.NewFromInt(1000)); !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got: %v", err)
	}
}

func TestCreatePart_NegativeBudget(t *testing.T) {
	service, _, _, wallet := newPartFixture(t)

	if _, err := service.Create(wallet.ID, "Stage", decimal.NewFromInt(-1)); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}
}

func TestAddMember(t *testing.T) {
	service, partRepo, studentRepo, wallet := newPartFixture(t)

	part, err := service.Create(wallet.ID, "Stage", decimal.NewFromInt(10000))
	if err != nil {
		t.Fatalf("creating part: %v", err)
	}
	student, _ := studentRepo.Create(&domain.Student{Name: "Hanako", AuthID: "auth0|hanako"})

	if err := service.AddMember(part.ID, student.ID, domain.RoleAccountant, true); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	role, err := partRepo.MemberRole(part.ID, student.ID)
	if err != nil {
		t.Fatalf("member role: %v", err)
	}
	if role != domain.RoleAccountant {
		t.Errorf("expected accountant role, got %s", role)
	}
}

func TestAddMember_Twice(t *testing.T) {
	service, _, studentRepo, wallet := newPartFixture(t)

	part, _ := service.Create(wallet.ID, "Stage", decimal.NewFromInt(10000))
	student, _ := studentRepo.Create(&domain.Student{Name: "Hanako", AuthID: "auth0|hanako"})

	if err := service.AddMember(part.ID, student.ID, domain.RoleMember, false); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := service.AddMember(part.ID, student.ID, domain.RoleMember, false); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got: %v", err)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	service, partRepo, studentRepo, wallet := newPartFixture(t)

	part, _ := service.Create(wallet.ID, "Stage", decimal.NewFromInt(10000))
	student, _ := studentRepo.Create(&domain.Student{Name: "Hanako", AuthID: "auth0|hanako"})
	service.AddMember(part.ID, student.ID, domain.RoleMember, false)

	if err := service.UpdateMemberRole(part.ID, student.ID, domain.RoleSubAccountant); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	role, _ := partRepo.MemberRole(part.ID, student.ID)
	if role != domain.RoleSubAccountant {
		t.Errorf("expected sub-accountant role, got %s", role)
	}
}

func TestUpdateMemberRole_NotMember(t *testing.T) {
	service, _, _, wallet := newPartFixture(t)

	part, _ := service.Create(wallet.ID, "Stage", decimal.NewFromInt(10000))
	if err := service.UpdateMemberRole(part.ID, uuid.New(), domain.RoleMember); !errors.Is(err, domain.ErrNotPartMember) {
		t.Errorf("expected ErrNotPartMember, got: %v", err)
	}
}
