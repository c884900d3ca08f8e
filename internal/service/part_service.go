package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PartService handles part creation and membership
type PartService struct {
	partRepo    domain.PartRepository
	walletRepo  domain.WalletRepository
	studentRepo domain.StudentRepository
}

// NewPartService creates a new PartService
func NewPartService(
	partRepo domain.PartRepository,
	walletRepo domain.WalletRepository,
	studentRepo domain.StudentRepository,
) *PartService {
	return &PartService{
		partRepo:    partRepo,
		walletRepo:  walletRepo,
		studentRepo: studentRepo,
	}
}

// Create creates a part under a wallet. The sum of part budgets in a wallet
// must stay within the wallet's own limit, checked against the sibling parts
// at creation time.
func (s *PartService) Create(walletID uuid.UUID, name string, budgetLimit decimal.Decimal) (*domain.Part, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}
	if budgetLimit.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	wallet, err := s.walletRepo.GetWithParts(walletID)
	if err != nil {
		return nil, err
	}

	allocated := decimal.Zero
	for _, sibling := range wallet.Parts {
		allocated = allocated.Add(sibling.BudgetLimit)
	}
	if allocated.Add(budgetLimit).GreaterThan(wallet.BudgetLimit) {
		return nil, domain.ErrBudgetExceeded
	}

	return s.partRepo.Create(&domain.Part{
		WalletID:    walletID,
		Name:        name,
		BudgetLimit: budgetLimit,
	})
}

// Get retrieves a part by ID.
func (s *PartService) Get(id uuid.UUID) (*domain.Part, error) {
	return s.partRepo.GetByID(id)
}

// AddMember adds a student to a part with a role.
func (s *PartService) AddMember(partID, studentID uuid.UUID, role domain.Role, isLeader bool) error {
	if !role.Valid() {
		return domain.ErrForbidden
	}
	if _, err := s.partRepo.GetByID(partID); err != nil {
		return err
	}
	if _, err := s.studentRepo.GetByID(studentID); err != nil {
		return err
	}
	if _, err := s.partRepo.MemberRole(partID, studentID); err == nil {
		return domain.ErrAlreadyMember
	}
	return s.partRepo.AddMember(partID, studentID, role, isLeader)
}

// UpdateMemberRole promotes or demotes an existing member.
func (s *PartService) UpdateMemberRole(partID, studentID uuid.UUID, role domain.Role) error {
	if !role.Valid() {
		return domain.ErrForbidden
	}
	if _, err := s.partRepo.MemberRole(partID, studentID); err != nil {
		return err
	}
	return s.partRepo.UpdateMemberRole(partID, studentID, role)
}

// Members lists the part's members with their roles.
func (s *PartService) Members(partID uuid.UUID) ([]*domain.PartMember, error) {
	if _, err := s.partRepo.GetByID(partID); err != nil {
		return nil, err
	}
	return s.partRepo.Members(partID)
}
