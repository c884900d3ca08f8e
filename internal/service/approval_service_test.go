package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

// approvalFixture wires the repos and actors for a part under one wallet:
// a requester (plain member), an accountant member and a wallet teacher.
type approvalFixture struct {
	approvals    *ApprovalService
	purchases    *PurchaseService
	purchaseRepo *testutil.MockPurchaseRepository
	productRepo  *testutil.MockProductRepository
	part         *domain.Part
	requester    *domain.Actor
	accountant   *domain.Actor
	teacher      *domain.Actor
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	partRepo := testutil.NewMockPartRepository()
	walletRepo := testutil.NewMockWalletRepository()
	productRepo := testutil.NewMockProductRepository()
	purchaseRepo := testutil.NewMockPurchaseRepository(productRepo)

	wallet := &domain.Wallet{EventID: uuid.New(), Name: "Class 2-A", BudgetLimit: decimal.NewFromInt(50000)}
	walletRepo.Create(wallet)

	part := &domain.Part{WalletID: wallet.ID, Name: "Stage", BudgetLimit: decimal.NewFromInt(30000)}
	partRepo.Create(part)

	requester := &domain.Actor{ID: uuid.New(), Kind: domain.ActorStudent, Name: "Hanako"}
	accountant := &domain.Actor{ID: uuid.New(), Kind: domain.ActorStudent, Name: "Taro"}
	teacher := &domain.Actor{ID: uuid.New(), Kind: domain.ActorTeacher, Name: "Sensei"}
	partRepo.AddMember(part.ID, requester.ID, domain.RoleMember, false)
	partRepo.AddMember(part.ID, accountant.ID, domain.RoleAccountant, true)
	walletRepo.AddTeacher(wallet.ID, teacher.ID)

	return &approvalFixture{
		approvals:    NewApprovalService(purchaseRepo, partRepo, walletRepo),
		purchases:    NewPurchaseService(purchaseRepo, partRepo, productRepo),
		purchaseRepo: purchaseRepo,
		productRepo:  productRepo,
		part:         part,
		requester:    requester,
		accountant:   accountant,
		teacher:      teacher,
	}
}

func (f *approvalFixture) newRequest(t *testing.T) *domain.Purchase {
	t.Helper()
	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{NewProduct: &domain.NewProductSpec{Name: "Plywood board", Price: decimal.NewFromInt(800)}, Quantity: 3},
	}, "stage backdrop")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}
	return purchase
}

func TestPurchaseLifecycle(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if purchase.Status() != domain.StatusPendingAccountant {
		t.Fatalf("expected %q after creation, got %q", domain.StatusPendingAccountant, purchase.Status())
	}

	purchase, err := f.approvals.ApproveAsAccountant(purchase.ID, f.accountant)
	if err != nil {
		t.Fatalf("accountant approval: %v", err)
	}
	if purchase.Status() != domain.StatusPendingTeacher {
		t.Fatalf("expected %q after accountant approval, got %q", domain.StatusPendingTeacher, purchase.Status())
	}

	purchase, err = f.approvals.ApproveAsTeacher(purchase.ID, f.teacher)
	if err != nil {
		t.Fatalf("teacher approval: %v", err)
	}
	if purchase.Status() != domain.StatusPurchasing {
		t.Fatalf("expected %q after teacher approval, got %q", domain.StatusPurchasing, purchase.Status())
	}

	purchase, err = f.approvals.Complete(purchase.ID, f.accountant, decimal.NewFromInt(2300))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if purchase.Status() != domain.StatusAwaitingReturn {
		t.Fatalf("expected %q after settlement, got %q", domain.StatusAwaitingReturn, purchase.Status())
	}

	purchase, err = f.approvals.Return(purchase.ID, f.accountant)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if purchase.Status() != domain.StatusCompleted {
		t.Fatalf("expected %q after return, got %q", domain.StatusCompleted, purchase.Status())
	}
	if purchase.CompletedAt == nil || purchase.ReturnedAt == nil {
		t.Error("expected completion and return timestamps set")
	}
}

func TestApproveAsAccountant_Twice(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, f.accountant); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, f.accountant); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on second approval, got: %v", err)
	}
}

func TestApproveAsAccountant_MemberRoleForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, f.requester); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden for plain member, got: %v", err)
	}
}

func TestApproveAsAccountant_OutsiderForbidden(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	outsider := &domain.Actor{ID: uuid.New(), Kind: domain.ActorStudent}
	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, outsider); !errors.Is(err, domain.ErrNotPartMember) {
		t.Errorf("expected ErrNotPartMember, got: %v", err)
	}
}

func TestApproveAsTeacher_RequiresAccountantFirst(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.ApproveAsTeacher(purchase.ID, f.teacher); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before accountant approval, got: %v", err)
	}
}

func TestApproveAsTeacher_UnassignedTeacher(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, f.accountant); err != nil {
		t.Fatalf("accountant approval: %v", err)
	}

	stranger := &domain.Actor{ID: uuid.New(), Kind: domain.ActorTeacher}
	if _, err := f.approvals.ApproveAsTeacher(purchase.ID, stranger); !errors.Is(err, domain.ErrNotWalletTeacher) {
		t.Errorf("expected ErrNotWalletTeacher, got: %v", err)
	}
}

func TestRejectAsAccountant_DeletesPurchaseAndPrivateProducts(t *testing.T) {
	f := newApprovalFixture(t)

	shared, _ := f.productRepo.Create(&domain.Product{Name: "Plywood board", Price: decimal.NewFromInt(800), DoesShare: true})
	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{ProductID: &shared.ID, Quantity: 1},
		{NewProduct: &domain.NewProductSpec{Name: "Custom banner", Price: decimal.NewFromInt(1500)}, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	if err := f.approvals.RejectAsAccountant(purchase.ID, f.accountant); err != nil {
		t.Fatalf("reject: %v", err)
	}

	if _, err := f.purchaseRepo.GetByID(purchase.ID); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Errorf("expected purchase gone after rejection, got: %v", err)
	}
	// the shared catalog product survives, the private one is reclaimed
	if _, err := f.productRepo.GetByID(shared.ID); err != nil {
		t.Errorf("expected shared product to survive, got: %v", err)
	}
	if len(f.productRepo.Products) != 1 {
		t.Errorf("expected only the shared product left, got %d products", len(f.productRepo.Products))
	}
}

func TestRejectAsTeacher_DeletesPurchase(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.ApproveAsAccountant(purchase.ID, f.accountant); err != nil {
		t.Fatalf("accountant approval: %v", err)
	}
	if err := f.approvals.RejectAsTeacher(purchase.ID, f.teacher); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.purchaseRepo.GetByID(purchase.ID); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Errorf("expected purchase gone after rejection, got: %v", err)
	}
}

func TestComplete_NegativeAmount(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	f.approvals.ApproveAsAccountant(purchase.ID, f.accountant)
	f.approvals.ApproveAsTeacher(purchase.ID, f.teacher)

	if _, err := f.approvals.Complete(purchase.ID, f.accountant, decimal.NewFromInt(-100)); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got: %v", err)
	}
}

func TestComplete_BeforeTeacherApproval(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.Complete(purchase.ID, f.accountant, decimal.NewFromInt(100)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestCancel_PurchasingStageOnly(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	// not cancellable while pending review
	if err := f.approvals.Cancel(purchase.ID, f.accountant); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before approvals, got: %v", err)
	}

	f.approvals.ApproveAsAccountant(purchase.ID, f.accountant)
	f.approvals.ApproveAsTeacher(purchase.ID, f.teacher)

	if err := f.approvals.Cancel(purchase.ID, f.accountant); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.purchaseRepo.GetByID(purchase.ID); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Errorf("expected purchase gone after cancel, got: %v", err)
	}
}

func TestCancel_AfterSettlement(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	f.approvals.ApproveAsAccountant(purchase.ID, f.accountant)
	f.approvals.ApproveAsTeacher(purchase.ID, f.teacher)
	f.approvals.Complete(purchase.ID, f.accountant, decimal.NewFromInt(2000))

	// once money moved the purchase can only go forward
	if err := f.approvals.Cancel(purchase.ID, f.accountant); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition after settlement, got: %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	withdrawn, err := f.approvals.Withdraw(purchase.ID, f.requester)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Status() != domain.StatusWithdrawn {
		t.Errorf("expected %q, got %q", domain.StatusWithdrawn, withdrawn.Status())
	}

	// the record stays visible, unlike a rejection
	if _, err := f.purchaseRepo.GetByID(purchase.ID); err != nil {
		t.Errorf("expected withdrawn purchase to remain, got: %v", err)
	}
}

func TestWithdraw_OnlyRequester(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	if _, err := f.approvals.Withdraw(purchase.ID, f.accountant); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got: %v", err)
	}
}

func TestWithdraw_AfterAccountantReview(t *testing.T) {
	f := newApprovalFixture(t)
	purchase := f.newRequest(t)

	f.approvals.ApproveAsAccountant(purchase.ID, f.accountant)

	if _, err := f.approvals.Withdraw(purchase.ID, f.requester); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got: %v", err)
	}
}
