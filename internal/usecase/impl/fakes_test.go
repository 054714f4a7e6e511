package impl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"procura/internal/domain/entity"
	domainerrors "procura/internal/domain/errors"
	"procura/internal/domain/repository"
	"procura/internal/domain/service"
	"procura/internal/util"
)

// In-memory repository fakes. They enforce the same constraints as the real
// Postgres layer (unique email, unique token hash, one bid per organization
// per tender) so the use cases can be tested without a database.

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*entity.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}

	account.ID = uuid.New()
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	r.accounts[account.ID] = copyAccount(account)

	return nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return copyAccount(account), nil
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Email == email {
			return copyAccount(account), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByVerificationToken(_ context.Context, token string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token == "" {
		return nil, repository.ErrAccountNotFound
	}
	for _, account := range r.accounts {
		if account.VerificationToken == token {
			return copyAccount(account), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tokenHash == "" {
		return nil, repository.ErrAccountNotFound
	}
	for _, account := range r.accounts {
		if account.ResetTokenHash == tokenHash {
			return copyAccount(account), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

func (r *fakeAccountRepo) Update(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; !ok {
		return repository.ErrAccountNotFound
	}

	account.UpdatedAt = time.Now()
	r.accounts[account.ID] = copyAccount(account)

	return nil
}

func (r *fakeAccountRepo) IncrementFailedLogins(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return 0, repository.ErrAccountNotFound
	}

	account.FailedLoginAttempts++

	return account.FailedLoginAttempts, nil
}

func (r *fakeAccountRepo) SetLockout(_ context.Context, id uuid.UUID, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}

	account.LockedUntil = &until

	return nil
}

func (r *fakeAccountRepo) ClearLoginFailures(_ context.Context, id uuid.UUID, lastLoginAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}

	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastLoginAt = &lastLoginAt

	return nil
}

func copyAccount(a *entity.Account) *entity.Account {
	cp := *a

	return &cp
}

type fakeOrganizationRepo struct {
	mu   sync.Mutex
	orgs map[uuid.UUID]*entity.Organization
}

func newFakeOrganizationRepo() *fakeOrganizationRepo {
	return &fakeOrganizationRepo{orgs: make(map[uuid.UUID]*entity.Organization)}
}

func (r *fakeOrganizationRepo) Create(_ context.Context, org *entity.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orgs {
		if existing.Name == org.Name {
			return domainerrors.ErrConflict
		}
	}

	org.ID = uuid.New()
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	cp := *org
	r.orgs[org.ID] = &cp

	return nil
}

func (r *fakeOrganizationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.orgs[id]
	if !ok {
		return nil, repository.ErrOrganizationNotFound
	}
	cp := *org

	return &cp, nil
}

func (r *fakeOrganizationRepo) FindByName(_ context.Context, name string) (*entity.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, org := range r.orgs {
		if org.Name == name {
			cp := *org

			return &cp, nil
		}
	}

	return nil, repository.ErrOrganizationNotFound
}

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*entity.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[uuid.UUID]*entity.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tokens {
		if existing.TokenHash == token.TokenHash {
			return domainerrors.ErrConflict
		}
	}

	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.ID] = &cp

	return nil
}

func (r *fakeRefreshTokenRepo) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range r.tokens {
		if token.TokenHash == tokenHash {
			if time.Now().After(token.ExpiresAt) {
				return nil, repository.ErrRefreshTokenExpired
			}
			cp := *token

			return &cp, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r *fakeRefreshTokenRepo) FindRefreshTokensByAccountID(_ context.Context, accountID uuid.UUID) ([]*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.RefreshToken
	for _, token := range r.tokens {
		if token.AccountID == accountID {
			cp := *token
			result = append(result, &cp)
		}
	}

	return result, nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshToken(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[id]; !ok {
		return repository.ErrRefreshTokenNotFound
	}
	delete(r.tokens, id)

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, token := range r.tokens {
		if token.TokenHash == tokenHash {
			delete(r.tokens, id)

			return nil
		}
	}

	return repository.ErrRefreshTokenNotFound
}

func (r *fakeRefreshTokenRepo) DeleteRefreshTokensByAccountID(_ context.Context, accountID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, token := range r.tokens {
		if token.AccountID == accountID {
			delete(r.tokens, id)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpiredRefreshTokens(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, token := range r.tokens {
		if now.After(token.ExpiresAt) {
			delete(r.tokens, id)
		}
	}

	return nil
}

func (r *fakeRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.tokens)
}

type fakeTenderRepo struct {
	mu      sync.Mutex
	tenders map[uuid.UUID]*entity.Tender
}

func newFakeTenderRepo() *fakeTenderRepo {
	return &fakeTenderRepo{tenders: make(map[uuid.UUID]*entity.Tender)}
}

func (r *fakeTenderRepo) Create(_ context.Context, tender *entity.Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tender.ID = uuid.New()
	tender.CreatedAt = time.Now()
	tender.UpdatedAt = tender.CreatedAt
	cp := *tender
	r.tenders[tender.ID] = &cp

	return nil
}

func (r *fakeTenderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tender, ok := r.tenders[id]
	if !ok {
		return nil, repository.ErrTenderNotFound
	}
	cp := *tender

	return &cp, nil
}

func (r *fakeTenderRepo) Update(_ context.Context, tender *entity.Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenders[tender.ID]; !ok {
		return repository.ErrTenderNotFound
	}

	tender.UpdatedAt = time.Now()
	cp := *tender
	r.tenders[tender.ID] = &cp

	return nil
}

func (r *fakeTenderRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenders[id]; !ok {
		return repository.ErrTenderNotFound
	}
	delete(r.tenders, id)

	return nil
}

func (r *fakeTenderRepo) List(_ context.Context, filter repository.TenderFilter) ([]*entity.Tender, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Tender
	for _, tender := range r.tenders {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, tender.Status) {
			continue
		}
		if filter.CreatedBy != uuid.Nil && tender.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Category != "" && tender.Category != filter.Category {
			continue
		}
		cp := *tender
		result = append(result, &cp)
	}

	return result, nil
}

func containsStatus(statuses []entity.TenderStatus, status entity.TenderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

type fakeBidRepo struct {
	mu   sync.Mutex
	bids map[uuid.UUID]*entity.Bid
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[uuid.UUID]*entity.Bid)}
}

func (r *fakeBidRepo) Create(_ context.Context, bid *entity.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bids {
		if existing.TenderID == bid.TenderID && existing.OrganizationID == bid.OrganizationID {
			return repository.ErrDuplicateBid
		}
	}

	bid.ID = uuid.New()
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = bid.CreatedAt
	cp := *bid
	r.bids[bid.ID] = &cp

	return nil
}

func (r *fakeBidRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bid, ok := r.bids[id]
	if !ok {
		return nil, repository.ErrBidNotFound
	}
	cp := *bid

	return &cp, nil
}

func (r *fakeBidRepo) Update(_ context.Context, bid *entity.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bids[bid.ID]; !ok {
		return repository.ErrBidNotFound
	}

	bid.UpdatedAt = time.Now()
	cp := *bid
	r.bids[bid.ID] = &cp

	return nil
}

func (r *fakeBidRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bids[id]; !ok {
		return repository.ErrBidNotFound
	}
	delete(r.bids, id)

	return nil
}

func (r *fakeBidRepo) ListByTender(_ context.Context, tenderID uuid.UUID) ([]*entity.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Bid
	for _, bid := range r.bids {
		if bid.TenderID == tenderID {
			cp := *bid
			result = append(result, &cp)
		}
	}

	return result, nil
}

func (r *fakeBidRepo) ListByTenderAndOrganization(_ context.Context, tenderID, orgID uuid.UUID) ([]*entity.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Bid
	for _, bid := range r.bids {
		if bid.TenderID == tenderID && bid.OrganizationID == orgID {
			cp := *bid
			result = append(result, &cp)
		}
	}

	return result, nil
}

func (r *fakeBidRepo) ListByOrganization(_ context.Context, orgID uuid.UUID) ([]*entity.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Bid
	for _, bid := range r.bids {
		if bid.OrganizationID == orgID {
			cp := *bid
			result = append(result, &cp)
		}
	}

	return result, nil
}

// fakeRepoFactory hands out the shared in-memory repositories; fakeTxManager
// simply runs the callback, which is enough to exercise transactional flows.

type fakeRepoFactory struct {
	accountRepo      repository.AccountRepository
	organizationRepo repository.OrganizationRepository
	refreshTokenRepo repository.RefreshTokenRepository
	tenderRepo       repository.TenderRepository
	bidRepo          repository.BidRepository
}

func (f *fakeRepoFactory) AccountRepo() repository.AccountRepository           { return f.accountRepo }
func (f *fakeRepoFactory) OrganizationRepo() repository.OrganizationRepository { return f.organizationRepo }
func (f *fakeRepoFactory) RefreshTokenRepo() repository.RefreshTokenRepository { return f.refreshTokenRepo }
func (f *fakeRepoFactory) TenderRepo() repository.TenderRepository             { return f.tenderRepo }
func (f *fakeRepoFactory) BidRepo() repository.BidRepository                   { return f.bidRepo }

type fakeTxManager struct {
	factory *fakeRepoFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

// Service fakes.

type fakePasswordHasher struct{}

func (fakePasswordHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakePasswordHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

func (fakePasswordHasher) ValidatePasswordStrength(password string) error {
	if !util.IsStrongPassword(password) {
		return domainerrors.ErrPasswordStrength
	}

	return nil
}

type fakeTokenService struct {
	mu       sync.Mutex
	counter  int
	issuedTo map[string]uuid.UUID
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{issuedTo: make(map[string]uuid.UUID)}
}

func (s *fakeTokenService) GenerateTokens(accountID uuid.UUID, role string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	access := fmt.Sprintf("access-%s-%d", role, s.counter)
	refresh := fmt.Sprintf("refresh-%d", s.counter)
	s.issuedTo[refresh] = accountID

	return access, refresh, nil
}

func (s *fakeTokenService) ValidateAccessToken(string) (*service.Claims, error) {
	return nil, domainerrors.ErrRefreshTokenInvalid
}

func (s *fakeTokenService) ValidateRefreshToken(token string) (*service.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountID, ok := s.issuedTo[token]
	if !ok {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}

	return &service.Claims{AccountID: accountID}, nil
}

func (s *fakeTokenService) HashToken(token string) string {
	return "h:" + token
}

func (s *fakeTokenService) GetAccessTokenDuration() time.Duration  { return time.Hour }
func (s *fakeTokenService) GetRefreshTokenDuration() time.Duration { return 24 * time.Hour }

const fakeValidTOTPCode = "123456"

type fakeTOTPService struct{}

func (fakeTOTPService) GenerateKey(accountEmail string) (*service.TOTPKey, error) {
	return &service.TOTPKey{
		Secret: "FAKESECRET",
		URI:    "otpauth://totp/procura:" + accountEmail + "?secret=FAKESECRET",
	}, nil
}

func (fakeTOTPService) Verify(secret, code string, _ time.Time) bool {
	return secret != "" && code == fakeValidTOTPCode
}

type fakeQRCodeService struct{}

func (fakeQRCodeService) GenerateProvisioningQR(string) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type failingQRCodeService struct{}

func (failingQRCodeService) GenerateProvisioningQR(string) ([]byte, error) {
	return nil, fmt.Errorf("png encode failed")
}

type fakeMailPublisher struct {
	mu     sync.Mutex
	events []*service.MailEvent
}

func (p *fakeMailPublisher) PublishMailEvent(_ context.Context, event *service.MailEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *fakeMailPublisher) Close() error { return nil }

func (p *fakeMailPublisher) published() []*service.MailEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*service.MailEvent(nil), p.events...)
}
