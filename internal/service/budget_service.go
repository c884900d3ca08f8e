package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// BudgetService computes used, planned and remaining budget for parts and
// wallets from their purchase records.
type BudgetService struct {
	partRepo   domain.PartRepository
	walletRepo domain.WalletRepository
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(partRepo domain.PartRepository, walletRepo domain.WalletRepository) *BudgetService {
	return &BudgetService{
		partRepo:   partRepo,
		walletRepo: walletRepo,
	}
}

// PartBudgetSummary holds the calculated budget figures for one part
type PartBudgetSummary struct {
	PartID       uuid.UUID       `json:"partId"`
	PartName     string          `json:"partName"`
	BudgetLimit  decimal.Decimal `json:"budgetLimit"`
	Usage        decimal.Decimal `json:"usage"`
	PlannedUsage decimal.Decimal `json:"plannedUsage"`
	Remaining    decimal.Decimal `json:"remaining"`
	PercentUsed  string          `json:"percentUsed"`
}

// WalletBudgetSummary holds the calculated budget figures for one wallet
type WalletBudgetSummary struct {
	WalletID       uuid.UUID            `json:"walletId"`
	WalletName     string               `json:"walletName"`
	BudgetLimit    decimal.Decimal      `json:"budgetLimit"`
	AllocatedTotal decimal.Decimal      `json:"allocatedTotal"`
	MemberCount    int                  `json:"memberCount"`
	Parts          []*PartBudgetSummary `json:"parts"`
}

// Usage sums the recorded actual usage across a part's purchases. Purchases
// that have not recorded actual usage contribute nothing.
func Usage(part *domain.PartWithPurchases) decimal.Decimal {
	total := decimal.Zero
	for _, purchase := range part.Purchases {
		if purchase.ActualUsage != nil {
			total = total.Add(*purchase.ActualUsage)
		}
	}
	return total
}

// PlannedUsage sums quantity × price over purchases that are still in flight:
// not rejected at any stage and without actual usage recorded yet. This is
// the committed-but-not-spent portion of the budget.
func PlannedUsage(part *domain.PartWithPurchases) decimal.Decimal {
	total := decimal.Zero
	for _, purchase := range part.Purchases {
		if purchase.Rejected() || purchase.ActualUsage != nil {
			continue
		}
		total = total.Add(purchase.TotalPrice())
	}
	return total
}

// DisplayPercent formats used/limit as a truncated whole percent. A zero
// limit displays as "0%", never an error; used == limit is exactly "100%".
// Truncation (not rounding) is load-bearing for existing displays.
func DisplayPercent(used, limit decimal.Decimal) string {
	if limit.IsZero() {
		return "0%"
	}
	if used.Equal(limit) {
		return "100%"
	}
	percent := used.Mul(decimal.NewFromInt(100)).Div(limit).Floor()
	return fmt.Sprintf("%s%%", percent.String())
}

// WalletMemberCount sums member counts across the wallet's parts. A student
// in two parts of the same wallet counts twice.
func WalletMemberCount(wallet *domain.WalletWithParts) int {
	count := 0
	for _, part := range wallet.Parts {
		count += part.MemberCount
	}
	return count
}

// PartSummary calculates the budget summary for one part.
func (s *BudgetService) PartSummary(partID uuid.UUID) (*PartBudgetSummary, error) {
	part, err := s.partRepo.GetWithBudgetContext(partID)
	if err != nil {
		return nil, err
	}
	return summarizePart(part), nil
}

// WalletSummary calculates the budget summary for a wallet and all its parts.
func (s *BudgetService) WalletSummary(walletID uuid.UUID) (*WalletBudgetSummary, error) {
	wallet, err := s.walletRepo.GetWithParts(walletID)
	if err != nil {
		return nil, err
	}

	summary := &WalletBudgetSummary{
		WalletID:       wallet.ID,
		WalletName:     wallet.Name,
		BudgetLimit:    wallet.BudgetLimit,
		AllocatedTotal: decimal.Zero,
		MemberCount:    WalletMemberCount(wallet),
		Parts:          make([]*PartBudgetSummary, 0, len(wallet.Parts)),
	}

	for _, part := range wallet.Parts {
		summary.AllocatedTotal = summary.AllocatedTotal.Add(part.BudgetLimit)
		loaded, err := s.partRepo.GetWithBudgetContext(part.ID)
		if err != nil {
			return nil, err
		}
		summary.Parts = append(summary.Parts, summarizePart(loaded))
	}

	return summary, nil
}

func summarizePart(part *domain.PartWithPurchases) *PartBudgetSummary {
	used := Usage(part)
	return &PartBudgetSummary{
		PartID:       part.ID,
		PartName:     part.Name,
		BudgetLimit:  part.BudgetLimit,
		Usage:        used,
		PlannedUsage: PlannedUsage(part),
		Remaining:    part.BudgetLimit.Sub(used),
		PercentUsed:  DisplayPercent(used, part.BudgetLimit),
	}
}
