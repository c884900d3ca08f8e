package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ApprovalService drives a purchase through its approval lifecycle:
// request → accountant review → teacher review → purchasing → settlement.
// Every operation takes the acting identity explicitly and checks one
// capability for its transition; rejection and cancellation delete the
// purchase with its items and orphaned private products in one transaction.
type ApprovalService struct {
	purchaseRepo domain.PurchaseRepository
	partRepo     domain.PartRepository
	walletRepo   domain.WalletRepository
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	purchaseRepo domain.PurchaseRepository,
	partRepo domain.PartRepository,
	walletRepo domain.WalletRepository,
) *ApprovalService {
	return &ApprovalService{
		purchaseRepo: purchaseRepo,
		partRepo:     partRepo,
		walletRepo:   walletRepo,
	}
}

// capability is what a transition demands of its actor.
type capability int

const (
	// capPartReviewer: Accountant or SubAccountant member of the purchase's part.
	capPartReviewer capability = iota
	// capWalletTeacher: teacher assigned to the part's wallet.
	capWalletTeacher
	// capRequester: the student who signed the request certificate.
	capRequester
)

// authorize checks one capability for the actor against the purchase's part
// and wallet. Failures are ErrForbidden (or the membership error that caused
// them), never a silent no-op.
func (s *ApprovalService) authorize(purchase *domain.Purchase, actor *domain.Actor, required capability) error {
	switch required {
	case capPartReviewer:
		role, err := s.partRepo.MemberRole(purchase.PartID, actor.ID)
		if err != nil {
			return err
		}
		if !role.CanReviewPurchases() {
			return domain.ErrForbidden
		}
		return nil
	case capWalletTeacher:
		part, err := s.partRepo.GetByID(purchase.PartID)
		if err != nil {
			return err
		}
		isTeacher, err := s.walletRepo.IsTeacher(part.WalletID, actor.ID)
		if err != nil {
			return err
		}
		if !isTeacher {
			return domain.ErrNotWalletTeacher
		}
		return nil
	case capRequester:
		if purchase.RequestedByID != actor.ID {
			return domain.ErrForbidden
		}
		return nil
	}
	return domain.ErrForbidden
}

// ApproveAsAccountant signs the accountant certificate. The purchase must be
// awaiting accountant review; approving an already-reviewed purchase fails
// with ErrInvalidTransition so budget effects can never apply twice.
func (s *ApprovalService) ApproveAsAccountant(purchaseID uuid.UUID, actor *domain.Actor) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(purchase, actor, capPartReviewer); err != nil {
		return nil, err
	}
	if purchase.Status() != domain.StatusPendingAccountant {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.purchaseRepo.SetAccountantCert(purchaseID, actor.ID, true); err != nil {
		return nil, err
	}
	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("signer_id", actor.ID.String()).
		Msg("Purchase approved by accountant")
	return s.purchaseRepo.GetByID(purchaseID)
}

// RejectAsAccountant refuses the request at the accountant stage. The
// purchase, its items and any private products left unreferenced are deleted
// together; partial deletion is never observable.
func (s *ApprovalService) RejectAsAccountant(purchaseID uuid.UUID, actor *domain.Actor) error {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return err
	}
	if err := s.authorize(purchase, actor, capPartReviewer); err != nil {
		return err
	}
	if purchase.Status() != domain.StatusPendingAccountant {
		return domain.ErrInvalidTransition
	}
	return s.deleteWithLog(purchaseID, actor, "rejected by accountant")
}

// ApproveAsTeacher signs the teacher certificate. Requires accountant
// approval first.
func (s *ApprovalService) ApproveAsTeacher(purchaseID uuid.UUID, actor *domain.Actor) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(purchase, actor, capWalletTeacher); err != nil {
		return nil, err
	}
	if purchase.Status() != domain.StatusPendingTeacher {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.purchaseRepo.SetTeacherCert(purchaseID, actor.ID, true); err != nil {
		return nil, err
	}
	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("signer_id", actor.ID.String()).
		Msg("Purchase approved by teacher")
	return s.purchaseRepo.GetByID(purchaseID)
}

// RejectAsTeacher refuses the request at the teacher stage with the same
// cascading deletion as an accountant rejection.
func (s *ApprovalService) RejectAsTeacher(purchaseID uuid.UUID, actor *domain.Actor) error {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return err
	}
	if err := s.authorize(purchase, actor, capWalletTeacher); err != nil {
		return err
	}
	if purchase.Status() != domain.StatusPendingTeacher {
		return domain.ErrInvalidTransition
	}
	return s.deleteWithLog(purchaseID, actor, "rejected by teacher")
}

// Complete records the actual amount spent. Only a part reviewer may settle,
// only after teacher approval, and the amount must be non-negative. The
// returned-money stamp happens separately via Return.
func (s *ApprovalService) Complete(purchaseID uuid.UUID, actor *domain.Actor, actualUsage decimal.Decimal) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(purchase, actor, capPartReviewer); err != nil {
		return nil, err
	}
	if purchase.Status() != domain.StatusPurchasing {
		return nil, domain.ErrInvalidTransition
	}
	if actualUsage.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if err := s.purchaseRepo.SetActualUsage(purchaseID, actualUsage); err != nil {
		return nil, err
	}
	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("actual_usage", actualUsage.String()).
		Msg("Purchase completed")
	return s.purchaseRepo.GetByID(purchaseID)
}

// Return records that the change was handed back, finishing the purchase.
func (s *ApprovalService) Return(purchaseID uuid.UUID, actor *domain.Actor) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(purchase, actor, capPartReviewer); err != nil {
		return nil, err
	}
	if purchase.Status() != domain.StatusAwaitingReturn {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.purchaseRepo.SetReturned(purchaseID, time.Now()); err != nil {
		return nil, err
	}
	return s.purchaseRepo.GetByID(purchaseID)
}

// Cancel abandons a fully approved purchase before any money was spent.
// Treated as a rejection: the purchase is deleted with the full cascade. Once
// actual usage is recorded the purchase can only move forward.
func (s *ApprovalService) Cancel(purchaseID uuid.UUID, actor *domain.Actor) error {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return err
	}
	if err := s.authorize(purchase, actor, capPartReviewer); err != nil {
		return err
	}
	if purchase.Status() != domain.StatusPurchasing {
		return domain.ErrInvalidTransition
	}
	return s.deleteWithLog(purchaseID, actor, "cancelled")
}

// Withdraw lets the requester pull back their own request while no
// accountant has reviewed it. The request certificate is flipped to
// unapproved; the record stays for the requester to see.
func (s *ApprovalService) Withdraw(purchaseID uuid.UUID, actor *domain.Actor) (*domain.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(purchase, actor, capRequester); err != nil {
		return nil, err
	}
	if purchase.Status() != domain.StatusPendingAccountant {
		return nil, domain.ErrInvalidTransition
	}
	if err := s.purchaseRepo.SetRequestApproved(purchaseID, false); err != nil {
		return nil, err
	}
	return s.purchaseRepo.GetByID(purchaseID)
}

func (s *ApprovalService) deleteWithLog(purchaseID uuid.UUID, actor *domain.Actor, reason string) error {
	if err := s.purchaseRepo.DeleteCascade(purchaseID); err != nil {
		return err
	}
	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("actor_id", actor.ID.String()).
		Str("reason", reason).
		Msg("Purchase deleted")
	return nil
}
