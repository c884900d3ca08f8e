package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/nishiko/matsuri-backend/internal/middleware"
	"github.com/nishiko/matsuri-backend/internal/service"
	"github.com/nishiko/matsuri-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

// setActor installs the resolved actor into the request context the way the
// auth middleware does
func setActor(c echo.Context, actor *domain.Actor) {
	ctx := context.WithValue(c.Request().Context(), middleware.ActorKey, actor)
	c.SetRequest(c.Request().WithContext(ctx))
}

// purchaseHandlerFixture wires mocks, services and the handler with one part
// and its requester/accountant members.
type purchaseHandlerFixture struct {
	handler    *PurchaseHandler
	part       *domain.Part
	requester  *domain.Actor
	accountant *domain.Actor
	purchases  *service.PurchaseService
}

func newPurchaseHandlerFixture(t *testing.T) *purchaseHandlerFixture {
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
	partRepo.AddMember(part.ID, requester.ID, domain.RoleMember, false)
	partRepo.AddMember(part.ID, accountant.ID, domain.RoleAccountant, true)

	purchaseService := service.NewPurchaseService(purchaseRepo, partRepo, productRepo)
	approvalService := service.NewApprovalService(purchaseRepo, partRepo, walletRepo)

	return &purchaseHandlerFixture{
		handler:    NewPurchaseHandler(purchaseService, approvalService),
		part:       part,
		requester:  requester,
		accountant: accountant,
		purchases:  purchaseService,
	}
}

func TestCreatePurchase_Success(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	reqBody := `{"items": [{"newProduct": {"name": "Plywood board", "price": "800", "doesShare": false}, "quantity": 3}], "note": "stage backdrop"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parts/"+f.part.ID.String()+"/purchases", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("partId")
	c.SetParamValues(f.part.ID.String())
	setActor(c, f.requester)

	if err := f.handler.CreatePurchase(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Status     string `json:"status"`
		TotalPrice string `json:"totalPrice"`
		Note       string `json:"note"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != string(domain.StatusPendingAccountant) {
		t.Errorf("expected status %q, got %q", domain.StatusPendingAccountant, response.Status)
	}
	if response.TotalPrice != "2400" {
		t.Errorf("expected total 2400, got %s", response.TotalPrice)
	}
	if response.Note != "stage backdrop" {
		t.Errorf("expected note kept, got %q", response.Note)
	}
}

func TestCreatePurchase_EmptyItems(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parts/"+f.part.ID.String()+"/purchases", strings.NewReader(`{"items": []}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("partId")
	c.SetParamValues(f.part.ID.String())
	setActor(c, f.requester)

	if err := f.handler.CreatePurchase(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestCreatePurchase_Unauthenticated(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/parts/"+f.part.ID.String()+"/purchases", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("partId")
	c.SetParamValues(f.part.ID.String())

	if err := f.handler.CreatePurchase(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAccountantReview_Approve(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{NewProduct: &domain.NewProductSpec{Name: "Tape", Price: decimal.NewFromInt(100)}, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/purchases/%s/accountant-review", purchase.ID), strings.NewReader(`{"action": "approve"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(purchase.ID.String())
	setActor(c, f.accountant)

	if err := f.handler.AccountantReview(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != string(domain.StatusPendingTeacher) {
		t.Errorf("expected status %q, got %q", domain.StatusPendingTeacher, response.Status)
	}
}

func TestAccountantReview_Reject(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{NewProduct: &domain.NewProductSpec{Name: "Tape", Price: decimal.NewFromInt(100)}, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/purchases/%s/accountant-review", purchase.ID), strings.NewReader(`{"action": "reject"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(purchase.ID.String())
	setActor(c, f.accountant)

	if err := f.handler.AccountantReview(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}

	// rejected purchases are gone
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/"+purchase.ID.String(), nil)
	getRec := httptest.NewRecorder()
	getCtx := e.NewContext(getReq, getRec)
	getCtx.SetParamNames("id")
	getCtx.SetParamValues(purchase.ID.String())

	if err := f.handler.GetPurchase(getCtx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if getRec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after rejection, got %d", getRec.Code)
	}
}

func TestAccountantReview_InvalidAction(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases/"+uuid.NewString()+"/accountant-review", strings.NewReader(`{"action": "maybe"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	setActor(c, f.accountant)

	if err := f.handler.AccountantReview(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAccountantReview_MemberForbidden(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{NewProduct: &domain.NewProductSpec{Name: "Tape", Price: decimal.NewFromInt(100)}, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/purchases/%s/accountant-review", purchase.ID), strings.NewReader(`{"action": "approve"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(purchase.ID.String())
	setActor(c, f.requester)

	if err := f.handler.AccountantReview(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}

func TestGetPurchase_InvalidID(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := f.handler.GetPurchase(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestWithdraw_Handler(t *testing.T) {
	e := echo.New()
	f := newPurchaseHandlerFixture(t)

	purchase, err := f.purchases.Create(f.part.ID, f.requester, []domain.PurchaseItemInput{
		{NewProduct: &domain.NewProductSpec{Name: "Tape", Price: decimal.NewFromInt(100)}, Quantity: 1},
	}, "")
	if err != nil {
		t.Fatalf("creating purchase: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/purchases/%s/withdraw", purchase.ID), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(purchase.ID.String())
	setActor(c, f.requester)

	if err := f.handler.Withdraw(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Status != string(domain.StatusWithdrawn) {
		t.Errorf("expected status %q, got %q", domain.StatusWithdrawn, response.Status)
	}
}
