package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nishiko/matsuri-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockEventRepository is a mock implementation of domain.EventRepository
type MockEventRepository struct {
	Events map[uuid.UUID]*domain.Event
}

// NewMockEventRepository creates a new MockEventRepository
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{Events: make(map[uuid.UUID]*domain.Event)}
}

// Create creates a new event
func (m *MockEventRepository) Create(event *domain.Event) (*domain.Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	m.Events[event.ID] = event
	return event, nil
}

// GetByID retrieves an event by ID
func (m *MockEventRepository) GetByID(id uuid.UUID) (*domain.Event, error) {
	if event, ok := m.Events[id]; ok {
		return event, nil
	}
	return nil, domain.ErrEventNotFound
}

// List retrieves all events
func (m *MockEventRepository) List() ([]*domain.Event, error) {
	events := make([]*domain.Event, 0, len(m.Events))
	for _, event := range m.Events {
		events = append(events, event)
	}
	return events, nil
}

// MockWalletRepository is a mock implementation of domain.WalletRepository
type MockWalletRepository struct {
	Wallets     map[uuid.UUID]*domain.Wallet
	Parts       map[uuid.UUID][]*domain.Part
	Teachers    map[uuid.UUID]map[uuid.UUID]bool
	Accountants map[uuid.UUID]map[uuid.UUID]bool
}

// NewMockWalletRepository creates a new MockWalletRepository
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		Wallets:     make(map[uuid.UUID]*domain.Wallet),
		Parts:       make(map[uuid.UUID][]*domain.Part),
		Teachers:    make(map[uuid.UUID]map[uuid.UUID]bool),
		Accountants: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// Create creates a new wallet
func (m *MockWalletRepository) Create(wallet *domain.Wallet) (*domain.Wallet, error) {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = time.Now()
	}
	m.Wallets[wallet.ID] = wallet
	return wallet, nil
}

// GetByID retrieves a wallet by ID
func (m *MockWalletRepository) GetByID(id uuid.UUID) (*domain.Wallet, error) {
	if wallet, ok := m.Wallets[id]; ok {
		return wallet, nil
	}
	return nil, domain.ErrWalletNotFound
}

// GetWithParts retrieves a wallet with its parts attached
func (m *MockWalletRepository) GetWithParts(id uuid.UUID) (*domain.WalletWithParts, error) {
	wallet, ok := m.Wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return &domain.WalletWithParts{Wallet: *wallet, Parts: m.Parts[id]}, nil
}

// ListByEvent retrieves wallets belonging to an event
func (m *MockWalletRepository) ListByEvent(eventID uuid.UUID) ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0)
	for _, wallet := range m.Wallets {
		if wallet.EventID == eventID {
			wallets = append(wallets, wallet)
		}
	}
	return wallets, nil
}

// IsTeacher reports whether the teacher is assigned to the wallet
func (m *MockWalletRepository) IsTeacher(walletID, teacherID uuid.UUID) (bool, error) {
	return m.Teachers[walletID][teacherID], nil
}

// AddTeacher assigns a teacher to the wallet
func (m *MockWalletRepository) AddTeacher(walletID, teacherID uuid.UUID) error {
	if _, ok := m.Wallets[walletID]; !ok {
		return domain.ErrWalletNotFound
	}
	if m.Teachers[walletID] == nil {
		m.Teachers[walletID] = make(map[uuid.UUID]bool)
	}
	m.Teachers[walletID][teacherID] = true
	return nil
}

// AddAccountantStudent registers an accountant student for the wallet
func (m *MockWalletRepository) AddAccountantStudent(walletID, studentID uuid.UUID) error {
	if _, ok := m.Wallets[walletID]; !ok {
		return domain.ErrWalletNotFound
	}
	if m.Accountants[walletID] == nil {
		m.Accountants[walletID] = make(map[uuid.UUID]bool)
	}
	m.Accountants[walletID][studentID] = true
	return nil
}

// AddPart attaches a part to the wallet (helper for tests)
func (m *MockWalletRepository) AddPart(part *domain.Part) {
	m.Parts[part.WalletID] = append(m.Parts[part.WalletID], part)
}

// MockPartRepository is a mock implementation of domain.PartRepository
type MockPartRepository struct {
	Parts       map[uuid.UUID]*domain.Part
	MemberRoles map[uuid.UUID]map[uuid.UUID]domain.Role
	PartMembers map[uuid.UUID][]*domain.PartMember
	Purchases   map[uuid.UUID][]*domain.Purchase
	Wallets     *MockWalletRepository
}

// NewMockPartRepository creates a new MockPartRepository
func NewMockPartRepository() *MockPartRepository {
	return &MockPartRepository{
		Parts:       make(map[uuid.UUID]*domain.Part),
		MemberRoles: make(map[uuid.UUID]map[uuid.UUID]domain.Role),
		PartMembers: make(map[uuid.UUID][]*domain.PartMember),
		Purchases:   make(map[uuid.UUID][]*domain.Purchase),
	}
}

// Create creates a new part
func (m *MockPartRepository) Create(part *domain.Part) (*domain.Part, error) {
	if part.ID == uuid.Nil {
		part.ID = uuid.New()
	}
	if part.CreatedAt.IsZero() {
		part.CreatedAt = time.Now()
	}
	m.Parts[part.ID] = part
	if m.Wallets != nil {
		m.Wallets.AddPart(part)
	}
	return part, nil
}

// GetByID retrieves a part by ID
func (m *MockPartRepository) GetByID(id uuid.UUID) (*domain.Part, error) {
	if part, ok := m.Parts[id]; ok {
		return part, nil
	}
	return nil, domain.ErrPartNotFound
}

// GetWithBudgetContext retrieves a part with its purchases attached
func (m *MockPartRepository) GetWithBudgetContext(id uuid.UUID) (*domain.PartWithPurchases, error) {
	part, ok := m.Parts[id]
	if !ok {
		return nil, domain.ErrPartNotFound
	}
	return &domain.PartWithPurchases{Part: *part, Purchases: m.Purchases[id]}, nil
}

// GetByWallet retrieves parts belonging to a wallet
func (m *MockPartRepository) GetByWallet(walletID uuid.UUID) ([]*domain.Part, error) {
	parts := make([]*domain.Part, 0)
	for _, part := range m.Parts {
		if part.WalletID == walletID {
			parts = append(parts, part)
		}
	}
	return parts, nil
}

// MemberRole returns the student's role in the part
func (m *MockPartRepository) MemberRole(partID, studentID uuid.UUID) (domain.Role, error) {
	if role, ok := m.MemberRoles[partID][studentID]; ok {
		return role, nil
	}
	return 0, domain.ErrNotPartMember
}

// AddMember adds a student to the part
func (m *MockPartRepository) AddMember(partID, studentID uuid.UUID, role domain.Role, isLeader bool) error {
	if m.MemberRoles[partID] == nil {
		m.MemberRoles[partID] = make(map[uuid.UUID]domain.Role)
	}
	m.MemberRoles[partID][studentID] = role
	m.PartMembers[partID] = append(m.PartMembers[partID], &domain.PartMember{
		PartID:   partID,
		Student:  &domain.Student{ID: studentID},
		Role:     role,
		IsLeader: isLeader,
		JoinedAt: time.Now(),
	})
	if part, ok := m.Parts[partID]; ok {
		part.MemberCount++
	}
	return nil
}

// UpdateMemberRole changes a member's role
func (m *MockPartRepository) UpdateMemberRole(partID, studentID uuid.UUID, role domain.Role) error {
	if _, ok := m.MemberRoles[partID][studentID]; !ok {
		return domain.ErrNotPartMember
	}
	m.MemberRoles[partID][studentID] = role
	for _, member := range m.PartMembers[partID] {
		if member.Student.ID == studentID {
			member.Role = role
		}
	}
	return nil
}

// Members lists the part's members
func (m *MockPartRepository) Members(partID uuid.UUID) ([]*domain.PartMember, error) {
	return m.PartMembers[partID], nil
}

// AddPurchase attaches a purchase to the part's budget context (helper for tests)
func (m *MockPartRepository) AddPurchase(partID uuid.UUID, purchase *domain.Purchase) {
	m.Purchases[partID] = append(m.Purchases[partID], purchase)
}

// MockProductRepository is a mock implementation of domain.ProductRepository
type MockProductRepository struct {
	Products   map[uuid.UUID]*domain.Product
	Referenced map[uuid.UUID]int
}

// NewMockProductRepository creates a new MockProductRepository
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		Products:   make(map[uuid.UUID]*domain.Product),
		Referenced: make(map[uuid.UUID]int),
	}
}

// Create creates a new product
func (m *MockProductRepository) Create(product *domain.Product) (*domain.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	m.Products[product.ID] = product
	return product, nil
}

// GetByID retrieves a product by ID
func (m *MockProductRepository) GetByID(id uuid.UUID) (*domain.Product, error) {
	if product, ok := m.Products[id]; ok {
		return product, nil
	}
	return nil, domain.ErrProductNotFound
}

// ListShared retrieves the shared product catalog
func (m *MockProductRepository) ListShared() ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	for _, product := range m.Products {
		if product.DoesShare {
			products = append(products, product)
		}
	}
	return products, nil
}

// ReclaimOrphans deletes private products without referencing purchase items
func (m *MockProductRepository) ReclaimOrphans() (int64, error) {
	var removed int64
	for id, product := range m.Products {
		if !product.DoesShare && m.Referenced[id] == 0 {
			delete(m.Products, id)
			removed++
		}
	}
	return removed, nil
}

// MockPurchaseRepository is a mock implementation of domain.PurchaseRepository
type MockPurchaseRepository struct {
	Purchases   map[uuid.UUID]*domain.Purchase
	ProductRepo *MockProductRepository
	SignerNames map[uuid.UUID]string
}

// NewMockPurchaseRepository creates a new MockPurchaseRepository
func NewMockPurchaseRepository(productRepo *MockProductRepository) *MockPurchaseRepository {
	return &MockPurchaseRepository{
		Purchases:   make(map[uuid.UUID]*domain.Purchase),
		ProductRepo: productRepo,
		SignerNames: make(map[uuid.UUID]string),
	}
}

// Create creates a purchase with its items and the signed request certificate
func (m *MockPurchaseRepository) Create(partID, requesterID uuid.UUID, items []domain.PurchaseItemInput, note string) (*domain.Purchase, error) {
	purchase := &domain.Purchase{
		ID:            uuid.New(),
		PartID:        partID,
		Note:          note,
		RequestedByID: requesterID,
		RequestCert: domain.Certificate{
			SignedByID:   requesterID,
			SignedByName: m.SignerNames[requesterID],
			Approved:     true,
			CreatedAt:    time.Now(),
		},
		CreatedAt: time.Now(),
	}

	for _, input := range items {
		var product *domain.Product
		switch {
		case input.ProductID != nil:
			existing, err := m.ProductRepo.GetByID(*input.ProductID)
			if err != nil {
				return nil, err
			}
			product = existing
		case input.NewProduct != nil:
			created, err := m.ProductRepo.Create(&domain.Product{
				Name:      input.NewProduct.Name,
				Price:     input.NewProduct.Price,
				DoesShare: input.NewProduct.DoesShare,
			})
			if err != nil {
				return nil, err
			}
			product = created
		default:
			return nil, domain.ErrProductNotFound
		}
		m.ProductRepo.Referenced[product.ID]++
		purchase.Items = append(purchase.Items, &domain.PurchaseItem{
			ID:       uuid.New(),
			Product:  product,
			Quantity: input.Quantity,
		})
	}

	m.Purchases[purchase.ID] = purchase
	return purchase, nil
}

// GetByID retrieves a purchase by ID
func (m *MockPurchaseRepository) GetByID(id uuid.UUID) (*domain.Purchase, error) {
	if purchase, ok := m.Purchases[id]; ok {
		return purchase, nil
	}
	return nil, domain.ErrPurchaseNotFound
}

// ListByPart retrieves all purchases of a part
func (m *MockPurchaseRepository) ListByPart(partID uuid.UUID) ([]*domain.Purchase, error) {
	purchases := make([]*domain.Purchase, 0)
	for _, purchase := range m.Purchases {
		if purchase.PartID == partID {
			purchases = append(purchases, purchase)
		}
	}
	return purchases, nil
}

// SetAccountantCert signs the accountant certificate. Setting it twice fails,
// matching the storage uniqueness guarantee.
func (m *MockPurchaseRepository) SetAccountantCert(purchaseID, signerID uuid.UUID, approved bool) error {
	purchase, ok := m.Purchases[purchaseID]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	if purchase.AccountantCert != nil {
		return domain.ErrInvalidTransition
	}
	purchase.AccountantCert = &domain.Certificate{
		SignedByID:   signerID,
		SignedByName: m.SignerNames[signerID],
		Approved:     approved,
		CreatedAt:    time.Now(),
	}
	return nil
}

// SetTeacherCert signs the teacher certificate
func (m *MockPurchaseRepository) SetTeacherCert(purchaseID, signerID uuid.UUID, approved bool) error {
	purchase, ok := m.Purchases[purchaseID]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	if purchase.TeacherCert != nil {
		return domain.ErrInvalidTransition
	}
	purchase.TeacherCert = &domain.Certificate{
		SignedByID:   signerID,
		SignedByName: m.SignerNames[signerID],
		Approved:     approved,
		CreatedAt:    time.Now(),
	}
	return nil
}

// SetRequestApproved flips the request certificate's approved flag
func (m *MockPurchaseRepository) SetRequestApproved(purchaseID uuid.UUID, approved bool) error {
	purchase, ok := m.Purchases[purchaseID]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	purchase.RequestCert.Approved = approved
	return nil
}

// SetActualUsage records the settled amount once
func (m *MockPurchaseRepository) SetActualUsage(purchaseID uuid.UUID, amount decimal.Decimal) error {
	purchase, ok := m.Purchases[purchaseID]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	if purchase.ActualUsage != nil {
		return domain.ErrInvalidTransition
	}
	purchase.ActualUsage = &amount
	return nil
}

// SetReturned stamps the return and completion times
func (m *MockPurchaseRepository) SetReturned(purchaseID uuid.UUID, returnedAt time.Time) error {
	purchase, ok := m.Purchases[purchaseID]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	if purchase.ActualUsage == nil || purchase.ReturnedAt != nil {
		return domain.ErrInvalidTransition
	}
	purchase.ReturnedAt = &returnedAt
	purchase.CompletedAt = &returnedAt
	return nil
}

// DeleteCascade removes the purchase, its items and orphaned private products
func (m *MockPurchaseRepository) DeleteCascade(id uuid.UUID) error {
	purchase, ok := m.Purchases[id]
	if !ok {
		return domain.ErrPurchaseNotFound
	}
	for _, item := range purchase.Items {
		m.ProductRepo.Referenced[item.Product.ID]--
	}
	delete(m.Purchases, id)
	_, err := m.ProductRepo.ReclaimOrphans()
	return err
}

// MockStudentRepository is a mock implementation of domain.StudentRepository
type MockStudentRepository struct {
	Students map[uuid.UUID]*domain.Student
	ByAuthID map[string]*domain.Student
}

// NewMockStudentRepository creates a new MockStudentRepository
func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{
		Students: make(map[uuid.UUID]*domain.Student),
		ByAuthID: make(map[string]*domain.Student),
	}
}

// GetByID retrieves a student by ID
func (m *MockStudentRepository) GetByID(id uuid.UUID) (*domain.Student, error) {
	if student, ok := m.Students[id]; ok {
		return student, nil
	}
	return nil, domain.ErrStudentNotFound
}

// GetByAuthID retrieves a student by auth subject
func (m *MockStudentRepository) GetByAuthID(authID string) (*domain.Student, error) {
	if student, ok := m.ByAuthID[authID]; ok {
		return student, nil
	}
	return nil, domain.ErrStudentNotFound
}

// Create creates a new student
func (m *MockStudentRepository) Create(student *domain.Student) (*domain.Student, error) {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	m.Students[student.ID] = student
	m.ByAuthID[student.AuthID] = student
	return student, nil
}

// MockTeacherRepository is a mock implementation of domain.TeacherRepository
type MockTeacherRepository struct {
	Teachers map[uuid.UUID]*domain.Teacher
	ByAuthID map[string]*domain.Teacher
}

// NewMockTeacherRepository creates a new MockTeacherRepository
func NewMockTeacherRepository() *MockTeacherRepository {
	return &MockTeacherRepository{
		Teachers: make(map[uuid.UUID]*domain.Teacher),
		ByAuthID: make(map[string]*domain.Teacher),
	}
}

// GetByID retrieves a teacher by ID
func (m *MockTeacherRepository) GetByID(id uuid.UUID) (*domain.Teacher, error) {
	if teacher, ok := m.Teachers[id]; ok {
		return teacher, nil
	}
	return nil, domain.ErrTeacherNotFound
}

// GetByAuthID retrieves a teacher by auth subject
func (m *MockTeacherRepository) GetByAuthID(authID string) (*domain.Teacher, error) {
	if teacher, ok := m.ByAuthID[authID]; ok {
		return teacher, nil
	}
	return nil, domain.ErrTeacherNotFound
}

// Create creates a new teacher
func (m *MockTeacherRepository) Create(teacher *domain.Teacher) (*domain.Teacher, error) {
	if teacher.ID == uuid.Nil {
		teacher.ID = uuid.New()
	}
	m.Teachers[teacher.ID] = teacher
	m.ByAuthID[teacher.AuthID] = teacher
	return teacher, nil
}

// MockReceiptStorage is an in-memory implementation of storage.ReceiptRepository
type MockReceiptStorage struct {
	Objects map[string][]byte
}

// NewMockReceiptStorage creates a new MockReceiptStorage
func NewMockReceiptStorage() *MockReceiptStorage {
	return &MockReceiptStorage{Objects: make(map[string][]byte)}
}

// Upload stores the object in memory
func (m *MockReceiptStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.Objects[objectPath] = buf.Bytes()
	return objectPath, nil
}

// Delete removes the object
func (m *MockReceiptStorage) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake signed URL for the object
func (m *MockReceiptStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example.com/%s?signed=true", objectPath), nil
}
