package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// WalletService handles wallet creation and staffing
type WalletService struct {
	walletRepo  domain.WalletRepository
	eventRepo   domain.EventRepository
	teacherRepo domain.TeacherRepository
	studentRepo domain.StudentRepository
}

// NewWalletService creates a new WalletService
func NewWalletService(
	walletRepo domain.WalletRepository,
	eventRepo domain.EventRepository,
	teacherRepo domain.TeacherRepository,
	studentRepo domain.StudentRepository,
) *WalletService {
	return &WalletService{
		walletRepo:  walletRepo,
		eventRepo:   eventRepo,
		teacherRepo: teacherRepo,
		studentRepo: studentRepo,
	}
}

// Create creates a wallet under an event. Wallet budgets within an event must
// stay inside the event's own limit.
func (s *WalletService) Create(eventID uuid.UUID, name string, budgetLimit decimal.Decimal) (*domain.Wallet, error) {
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

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.walletRepo.ListByEvent(eventID)
	if err != nil {
		return nil, err
	}
	allocated := decimal.Zero
	for _, sibling := range siblings {
		allocated = allocated.Add(sibling.BudgetLimit)
	}
	if allocated.Add(budgetLimit).GreaterThan(event.BudgetLimit) {
		return nil, domain.ErrBudgetExceeded
	}

	return s.walletRepo.Create(&domain.Wallet{
		EventID:     eventID,
		Name:        name,
		BudgetLimit: budgetLimit,
	})
}

// Get retrieves a wallet by ID.
func (s *WalletService) Get(id uuid.UUID) (*domain.Wallet, error) {
	return s.walletRepo.GetByID(id)
}

// ListByEvent retrieves an event's wallets.
func (s *WalletService) ListByEvent(eventID uuid.UUID) ([]*domain.Wallet, error) {
	if _, err := s.eventRepo.GetByID(eventID); err != nil {
		return nil, err
	}
	return s.walletRepo.ListByEvent(eventID)
}

// AddTeacher assigns a teacher as an approver for the wallet.
func (s *WalletService) AddTeacher(walletID, teacherID uuid.UUID) error {
	if _, err := s.walletRepo.GetByID(walletID); err != nil {
		return err
	}
	if _, err := s.teacherRepo.GetByID(teacherID); err != nil {
		return err
	}
	return s.walletRepo.AddTeacher(walletID, teacherID)
}

// AddAccountantStudent attaches a student as a wallet-level accountant.
func (s *WalletService) AddAccountantStudent(walletID, studentID uuid.UUID) error {
	if _, err := s.walletRepo.GetByID(walletID); err != nil {
		return err
	}
	if _, err := s.studentRepo.GetByID(studentID); err != nil {
		return err
	}
	return s.walletRepo.AddAccountantStudent(walletID, studentID)
}
