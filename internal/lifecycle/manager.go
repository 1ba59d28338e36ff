package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aqibcreates/teachreach-backend/internal/models"
	"github.com/aqibcreates/teachreach-backend/pkg/utils"
)

// Errors returned to the presentation layer. Storage failures are wrapped
// and satisfy errors.Is against none of these.
var (
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrAccountNotFound    = errors.New("account does not exist")
	ErrWrongCredential    = errors.New("incorrect password")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrNoPendingChallenge = errors.New("no pending verification for this email")
	ErrAdminProtected     = errors.New("admin account cannot be deleted")
	ErrNotFound           = errors.New("not found")
)

// Session is the in-memory record of an authenticated account, addressed by
// an opaque token held by the client.
type Session struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// OtpChallenge is returned whenever an account must prove control of an
// email address before a session can be established.
type OtpChallenge struct {
	Email string `json:"email"`
	Code  string `json:"-"` // surfaced only through CodeDelivery, never in responses
}

// ProfilePatch is the closed set of self-service updatable fields. A nil
// field is left unchanged.
type ProfilePatch struct {
	Name       *string
	Email      *string
	Phone      *string
	Credential *string
}

// Manager mediates every state transition of an Account and its Session:
// register → verify → login on the way in, profile edits and cascading
// deletion on the way out. It owns no storage itself; everything goes
// through the collaborator contracts in store.go.
type Manager struct {
	store    Store
	sessions SessionStore
	delivery CodeDelivery
	events   ChangeNotifier // optional

	adminEmail string

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

// NewManager wires a manager. adminEmail is the single reserved address that
// always confers the admin role. events may be nil.
func NewManager(store Store, sessions SessionStore, delivery CodeDelivery, events ChangeNotifier, adminEmail string) *Manager {
	return &Manager{
		store:      store,
		sessions:   sessions,
		delivery:   delivery,
		events:     events,
		adminEmail: normalizeEmail(adminEmail),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
		newCode:    utils.GenerateOTP,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *Manager) roleFor(email string) models.Role {
	if email == m.adminEmail {
		return models.RoleAdmin
	}
	return models.RoleClient
}

// Register creates an unverified account and issues its first one-time code.
// The email must not already be registered; the unique index on the accounts
// collection makes a concurrent duplicate fail closed inside InsertAccount.
func (m *Manager) Register(ctx context.Context, name, email, phone, credential string) (*OtpChallenge, error) {
	email = normalizeEmail(email)

	if _, err := m.store.FindAccountByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := utils.HashPassword(credential)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	code, err := m.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := m.now()
	account := &models.Account{
		ID:           m.newID(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Name:         name,
		Email:        email,
		Phone:        phone,
		Avatar:       "https://picsum.photos/seed/" + strings.ReplaceAll(name, " ", "") + "/100/100",
		Role:         m.roleFor(email),
		PasswordHash: hash,
		IsVerified:   false,
		PendingCode:  code,
	}

	if err := m.store.InsertAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	m.delivery.DeliverCode(email, code)
	return &OtpChallenge{Email: email, Code: code}, nil
}

// Login authenticates an account. For verified accounts it establishes a
// Session; for unverified ones it issues a fresh challenge instead, and the
// nil Session tells the caller that verification is still required.
func (m *Manager) Login(ctx context.Context, email, credential string) (*Session, *OtpChallenge, error) {
	email = normalizeEmail(email)

	account, err := m.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := utils.VerifyPassword(credential, account.PasswordHash)
	if err != nil || !ok {
		return nil, nil, ErrWrongCredential
	}

	// The reserved admin address always carries the admin role, whatever the
	// stored document says. Heal it on the way through.
	if account.Email == m.adminEmail && account.Role != models.RoleAdmin {
		account.Role = models.RoleAdmin
		account.UpdatedAt = m.now()
		if err := m.store.UpdateAccount(ctx, account); err != nil {
			return nil, nil, fmt.Errorf("heal admin role: %w", err)
		}
		m.notifyChanged(ctx, account)
	}

	if !account.IsVerified {
		challenge, err := m.issueChallenge(ctx, account)
		if err != nil {
			return nil, nil, err
		}
		return nil, challenge, nil
	}

	sess, err := m.sessions.Create(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil, nil
}

// issueChallenge overwrites the pending code, invalidating any previous one.
func (m *Manager) issueChallenge(ctx context.Context, account *models.Account) (*OtpChallenge, error) {
	code, err := m.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	account.PendingCode = code
	account.UpdatedAt = m.now()
	if err := m.store.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("store code: %w", err)
	}
	m.delivery.DeliverCode(account.Email, code)
	return &OtpChallenge{Email: account.Email, Code: code}, nil
}

// VerifyOTP completes the challenge for an email: code equality only, no
// expiry. Success marks the account verified, clears the code and
// establishes a Session.
func (m *Manager) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)

	account, err := m.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoPendingChallenge
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if account.PendingCode == "" {
		return nil, ErrNoPendingChallenge
	}
	if code == "" || code != account.PendingCode {
		return nil, ErrInvalidCode
	}

	account.IsVerified = true
	account.PendingCode = ""
	account.UpdatedAt = m.now()
	if err := m.store.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	m.notifyChanged(ctx, account)

	sess, err := m.sessions.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// ResendOTP replaces the pending code with a fresh one; only the newest code
// is ever valid.
func (m *Manager) ResendOTP(ctx context.Context, email string) (*OtpChallenge, error) {
	email = normalizeEmail(email)

	account, err := m.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return m.issueChallenge(ctx, account)
}

// UpdateProfile applies a patch to the session's own account; cross-account
// edits are not expressible. Changing the email drops the account back to
// unverified, terminates the session and issues a new challenge; the caller
// must re-verify before a new session can be established.
func (m *Manager) UpdateProfile(ctx context.Context, sess *Session, patch ProfilePatch) (*models.Account, error) {
	account, err := m.store.FindAccountByID(ctx, sess.Account.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	emailChanged := false
	if patch.Email != nil {
		newEmail := normalizeEmail(*patch.Email)
		if newEmail != account.Email {
			if _, err := m.store.FindAccountByEmail(ctx, newEmail); err == nil {
				return nil, ErrDuplicateEmail
			} else if !errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("lookup account: %w", err)
			}
			account.Email = newEmail
			account.Role = m.roleFor(newEmail)
			emailChanged = true
		}
	}
	if patch.Name != nil {
		account.Name = *patch.Name
	}
	if patch.Phone != nil {
		account.Phone = *patch.Phone
	}
	if patch.Credential != nil {
		hash, err := utils.HashPassword(*patch.Credential)
		if err != nil {
			return nil, fmt.Errorf("hash credential: %w", err)
		}
		account.PasswordHash = hash
	}

	if emailChanged {
		code, err := m.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		account.IsVerified = false
		account.PendingCode = code
		account.UpdatedAt = m.now()
		if err := m.store.UpdateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		if err := m.sessions.Invalidate(ctx, sess.Token); err != nil {
			return nil, fmt.Errorf("terminate session: %w", err)
		}
		m.delivery.DeliverCode(account.Email, code)
		m.notifyChanged(ctx, account)
		return account, nil
	}

	account.UpdatedAt = m.now()
	if err := m.store.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if err := m.sessions.Refresh(ctx, sess.Token, account); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	m.notifyChanged(ctx, account)
	return account, nil
}

// DeleteAccount removes an account together with every message and review it
// authored, and clears its sessions. The admin account is refused
// unconditionally. Steps run account-last so a partial failure can be
// retried to completion; repeating a finished delete yields ErrNotFound.
func (m *Manager) DeleteAccount(ctx context.Context, accountID string) error {
	account, err := m.store.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}
	if account.Role == models.RoleAdmin || account.Email == m.adminEmail {
		return ErrAdminProtected
	}

	if _, err := m.store.DeleteMessagesBySender(ctx, accountID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := m.store.DeleteReviewsByAuthor(ctx, accountID); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if err := m.store.DeleteAccount(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	if err := m.sessions.InvalidateAccount(ctx, accountID); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if m.events != nil {
		m.events.AccountDeleted(ctx, accountID)
	}
	return nil
}

// Logout clears the session unconditionally. An unknown token is a no-op.
func (m *Manager) Logout(ctx context.Context, token string) error {
	return m.sessions.Invalidate(ctx, token)
}

// CurrentSession resolves a token back to its Session, which is how a client
// re-establishes state after a restart. Returns ErrNotFound for unknown or
// expired tokens.
func (m *Manager) CurrentSession(ctx context.Context, token string) (*Session, error) {
	return m.sessions.Get(ctx, token)
}

func (m *Manager) notifyChanged(ctx context.Context, account *models.Account) {
	if m.events != nil {
		m.events.AccountChanged(ctx, account)
	}
}
