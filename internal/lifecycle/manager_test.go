package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqibcreates/teachreach-backend/internal/models"
	"github.com/aqibcreates/teachreach-backend/pkg/utils"
)

// fakeStore keeps accounts in memory and counts cascade deletions.
type fakeStore struct {
	accounts map[string]*models.Account // id -> account

	messagesBySender map[string]int64
	reviewsByAuthor  map[string]int64

	deleteOrder []string // records cascade step order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:         map[string]*models.Account{},
		messagesBySender: map[string]int64{},
		reviewsByAuthor:  map[string]int64{},
	}
}

func (s *fakeStore) FindAccountByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range s.accounts {
		if a.Email == email {
			copy := *a
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) FindAccountByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (s *fakeStore) InsertAccount(_ context.Context, a *models.Account) error {
	for _, existing := range s.accounts {
		if existing.Email == a.Email {
			return ErrDuplicateEmail
		}
	}
	copy := *a
	s.accounts[a.ID] = &copy
	return nil
}

func (s *fakeStore) UpdateAccount(_ context.Context, a *models.Account) error {
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	copy := *a
	s.accounts[a.ID] = &copy
	return nil
}

func (s *fakeStore) DeleteAccount(_ context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	s.deleteOrder = append(s.deleteOrder, "account")
	return nil
}

func (s *fakeStore) DeleteMessagesBySender(_ context.Context, accountID string) (int64, error) {
	n := s.messagesBySender[accountID]
	delete(s.messagesBySender, accountID)
	s.deleteOrder = append(s.deleteOrder, "messages")
	return n, nil
}

func (s *fakeStore) DeleteReviewsByAuthor(_ context.Context, accountID string) (int64, error) {
	n := s.reviewsByAuthor[accountID]
	delete(s.reviewsByAuthor, accountID)
	s.deleteOrder = append(s.deleteOrder, "reviews")
	return n, nil
}

// fakeSessions tracks one session per account, like the Redis implementation.
type fakeSessions struct {
	byToken   map[string]*Session
	byAccount map[string]string // account id -> token
	counter   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]*Session{}, byAccount: map[string]string{}}
}

func (s *fakeSessions) Create(_ context.Context, account *models.Account) (*Session, error) {
	if old, ok := s.byAccount[account.ID]; ok {
		delete(s.byToken, old)
	}
	s.counter++
	token := fmt.Sprintf("token-%d", s.counter)
	copy := *account
	sess := &Session{Token: token, Account: &copy}
	s.byToken[token] = sess
	s.byAccount[account.ID] = token
	return sess, nil
}

func (s *fakeSessions) Get(_ context.Context, token string) (*Session, error) {
	sess, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *fakeSessions) Refresh(_ context.Context, token string, account *models.Account) error {
	sess, ok := s.byToken[token]
	if !ok {
		return ErrNotFound
	}
	copy := *account
	sess.Account = &copy
	return nil
}

func (s *fakeSessions) Invalidate(_ context.Context, token string) error {
	if sess, ok := s.byToken[token]; ok {
		delete(s.byAccount, sess.Account.ID)
		delete(s.byToken, token)
	}
	return nil
}

func (s *fakeSessions) InvalidateAccount(_ context.Context, accountID string) error {
	if token, ok := s.byAccount[accountID]; ok {
		delete(s.byToken, token)
		delete(s.byAccount, accountID)
	}
	return nil
}

// fakeDelivery records every code sent.
type fakeDelivery struct {
	sent []struct{ Email, Code string }
}

func (d *fakeDelivery) DeliverCode(email, code string) {
	d.sent = append(d.sent, struct{ Email, Code string }{email, code})
}

func (d *fakeDelivery) last() (string, string) {
	if len(d.sent) == 0 {
		return "", ""
	}
	s := d.sent[len(d.sent)-1]
	return s.Email, s.Code
}

// fakeNotifier records change events.
type fakeNotifier struct {
	changed []string // account ids
	deleted []string
}

func (n *fakeNotifier) AccountChanged(_ context.Context, account *models.Account) {
	n.changed = append(n.changed, account.ID)
}

func (n *fakeNotifier) AccountDeleted(_ context.Context, accountID string) {
	n.deleted = append(n.deleted, accountID)
}

const testAdminEmail = "admin@myapp.com"

type fixture struct {
	store    *fakeStore
	sessions *fakeSessions
	delivery *fakeDelivery
	notifier *fakeNotifier
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		sessions: newFakeSessions(),
		delivery: &fakeDelivery{},
		notifier: &fakeNotifier{},
	}
	f.manager = NewManager(f.store, f.sessions, f.delivery, f.notifier, testAdminEmail)

	// Deterministic ids, codes, and clock.
	ids, codes := 0, 1000
	f.manager.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	f.manager.newCode = func() (string, error) {
		codes++
		return fmt.Sprintf("%d", codes), nil
	}
	f.manager.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

// register creates and verifies an account, returning its session.
func (f *fixture) registerVerified(t *testing.T, name, email, password string) *Session {
	t.Helper()
	challenge, err := f.manager.Register(context.Background(), name, email, "555-0100", password)
	require.NoError(t, err)
	sess, err := f.manager.VerifyOTP(context.Background(), email, challenge.Code)
	require.NoError(t, err)
	return sess
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	f := newFixture(t)

	challenge, err := f.manager.Register(context.Background(), "Aarav Mehta", "Aarav@Example.com", "555-0100", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "aarav@example.com", challenge.Email)
	assert.NotEmpty(t, challenge.Code)

	account, err := f.store.FindAccountByEmail(context.Background(), "aarav@example.com")
	require.NoError(t, err)
	assert.False(t, account.IsVerified)
	assert.Equal(t, models.RoleClient, account.Role)
	assert.Equal(t, challenge.Code, account.PendingCode)
	assert.NotEqual(t, "hunter2hunter2", account.PasswordHash)

	email, code := f.delivery.last()
	assert.Equal(t, "aarav@example.com", email)
	assert.Equal(t, challenge.Code, code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Register(context.Background(), "First", "dup@example.com", "555-0100", "password-one")
	require.NoError(t, err)

	_, err = f.manager.Register(context.Background(), "Second", "DUP@example.com", "555-0200", "password-two")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterReservedEmailGetsAdminRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Register(context.Background(), "Site Admin", testAdminEmail, "555-0100", "admin-password")
	require.NoError(t, err)

	account, err := f.store.FindAccountByEmail(context.Background(), testAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, account.Role)
}

func TestLoginUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.manager.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	_, _, err := f.manager.Login(context.Background(), "aarav@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrWrongCredential)
}

func TestLoginVerifiedCreatesSession(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	sess, challenge, err := f.manager.Login(context.Background(), "aarav@example.com", "correct-password")
	require.NoError(t, err)
	assert.Nil(t, challenge)
	require.NotNil(t, sess)
	assert.Equal(t, "aarav@example.com", sess.Account.Email)

	got, err := f.manager.CurrentSession(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.Account.ID, got.Account.ID)
}

func TestLoginUnverifiedIssuesFreshChallenge(t *testing.T) {
	f := newFixture(t)

	first, err := f.manager.Register(context.Background(), "Aarav", "aarav@example.com", "555-0100", "correct-password")
	require.NoError(t, err)

	sess, challenge, err := f.manager.Login(context.Background(), "aarav@example.com", "correct-password")
	require.NoError(t, err)
	assert.Nil(t, sess)
	require.NotNil(t, challenge)
	assert.NotEqual(t, first.Code, challenge.Code)

	// Only the newest code verifies.
	_, err = f.manager.VerifyOTP(context.Background(), "aarav@example.com", first.Code)
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = f.manager.VerifyOTP(context.Background(), "aarav@example.com", challenge.Code)
	assert.NoError(t, err)
}

func TestLoginHealsAdminRole(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Admin", testAdminEmail, "admin-password")

	// Simulate a stale document with the wrong role.
	for _, a := range f.store.accounts {
		a.Role = models.RoleClient
	}

	sess, _, err := f.manager.Login(context.Background(), testAdminEmail, "admin-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, sess.Account.Role)

	stored, err := f.store.FindAccountByEmail(context.Background(), testAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
	assert.NotEmpty(t, f.notifier.changed)
}

func TestVerifyOTPWithoutAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.VerifyOTP(context.Background(), "nobody@example.com", "1234")
	assert.ErrorIs(t, err, ErrNoPendingChallenge)
}

func TestVerifyOTPWithoutPendingCode(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	// Already verified: the pending code was cleared.
	_, err := f.manager.VerifyOTP(context.Background(), "aarav@example.com", "1234")
	assert.ErrorIs(t, err, ErrNoPendingChallenge)
}

func TestVerifyOTPMismatch(t *testing.T) {
	f := newFixture(t)

	challenge, err := f.manager.Register(context.Background(), "Aarav", "aarav@example.com", "555-0100", "correct-password")
	require.NoError(t, err)

	_, err = f.manager.VerifyOTP(context.Background(), "aarav@example.com", challenge.Code+"9")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// The account stays unverified and the code stays live.
	sess, err := f.manager.VerifyOTP(context.Background(), "aarav@example.com", challenge.Code)
	require.NoError(t, err)
	assert.True(t, sess.Account.IsVerified)
}

func TestVerifyOTPClearsCode(t *testing.T) {
	f := newFixture(t)

	challenge, err := f.manager.Register(context.Background(), "Aarav", "aarav@example.com", "555-0100", "correct-password")
	require.NoError(t, err)

	_, err = f.manager.VerifyOTP(context.Background(), "aarav@example.com", challenge.Code)
	require.NoError(t, err)

	account, err := f.store.FindAccountByEmail(context.Background(), "aarav@example.com")
	require.NoError(t, err)
	assert.True(t, account.IsVerified)
	assert.Empty(t, account.PendingCode)
}

func TestResendOTPInvalidatesPrevious(t *testing.T) {
	f := newFixture(t)

	first, err := f.manager.Register(context.Background(), "Aarav", "aarav@example.com", "555-0100", "correct-password")
	require.NoError(t, err)

	second, err := f.manager.ResendOTP(context.Background(), "aarav@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	_, err = f.manager.VerifyOTP(context.Background(), "aarav@example.com", first.Code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestResendOTPUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.ResendOTP(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	name := "Aarav M."
	phone := "555-0999"
	account, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Aarav M.", account.Name)
	assert.Equal(t, "555-0999", account.Phone)
	assert.Equal(t, "aarav@example.com", account.Email)
	assert.True(t, account.IsVerified)

	// The session snapshot was refreshed in place.
	got, err := f.manager.CurrentSession(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Aarav M.", got.Account.Name)
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "old-password-1")

	newPassword := "new-password-22"
	_, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Credential: &newPassword})
	require.NoError(t, err)

	_, _, err = f.manager.Login(context.Background(), "aarav@example.com", "old-password-1")
	assert.ErrorIs(t, err, ErrWrongCredential)

	loginSess, _, err := f.manager.Login(context.Background(), "aarav@example.com", newPassword)
	require.NoError(t, err)
	assert.NotNil(t, loginSess)
}

func TestUpdateProfileEmailChangeRequiresReverify(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	newEmail := "New@Example.com"
	account, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", account.Email)
	assert.False(t, account.IsVerified)
	assert.NotEmpty(t, account.PendingCode)

	// The session is gone; the client must verify and sign in again.
	_, err = f.manager.CurrentSession(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	email, code := f.delivery.last()
	assert.Equal(t, "new@example.com", email)
	assert.Equal(t, account.PendingCode, code)
}

func TestUpdateProfileEmailChangeToDuplicate(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Other", "taken@example.com", "other-password")
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	taken := "taken@example.com"
	_, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// Nothing changed.
	account, err := f.store.FindAccountByEmail(context.Background(), "aarav@example.com")
	require.NoError(t, err)
	assert.True(t, account.IsVerified)
}

func TestUpdateProfileSameEmailIsNotAChange(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	same := "AARAV@example.com"
	account, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Email: &same})
	require.NoError(t, err)
	assert.True(t, account.IsVerified)

	_, err = f.manager.CurrentSession(context.Background(), sess.Token)
	assert.NoError(t, err)
}

func TestUpdateProfileEmailChangeToReservedGrantsAdmin(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	reserved := testAdminEmail
	account, err := f.manager.UpdateProfile(context.Background(), sess, ProfilePatch{Email: &reserved})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, account.Role)
	assert.False(t, account.IsVerified)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")
	id := sess.Account.ID

	f.store.messagesBySender[id] = 3
	f.store.reviewsByAuthor[id] = 2

	err := f.manager.DeleteAccount(context.Background(), id)
	require.NoError(t, err)

	// Authored data goes first, the account document last.
	assert.Equal(t, []string{"messages", "reviews", "account"}, f.store.deleteOrder)
	assert.Empty(t, f.store.messagesBySender)
	assert.Empty(t, f.store.reviewsByAuthor)

	_, err = f.store.FindAccountByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.manager.CurrentSession(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{id}, f.notifier.deleted)
}

func TestDeleteAccountIdempotent(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	require.NoError(t, f.manager.DeleteAccount(context.Background(), sess.Account.ID))
	err := f.manager.DeleteAccount(context.Background(), sess.Account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccountAdminProtected(t *testing.T) {
	f := newFixture(t)
	sess := f.registerVerified(t, "Admin", testAdminEmail, "admin-password")

	err := f.manager.DeleteAccount(context.Background(), sess.Account.ID)
	assert.ErrorIs(t, err, ErrAdminProtected)

	// Still protected when the stored role is stale but the email is reserved.
	for _, a := range f.store.accounts {
		a.Role = models.RoleClient
	}
	err = f.manager.DeleteAccount(context.Background(), sess.Account.ID)
	assert.ErrorIs(t, err, ErrAdminProtected)
}

func TestLogoutUnknownTokenIsNoop(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.manager.Logout(context.Background(), "no-such-token"))
}

func TestLoginReplacesExistingSession(t *testing.T) {
	f := newFixture(t)
	f.registerVerified(t, "Aarav", "aarav@example.com", "correct-password")

	first, _, err := f.manager.Login(context.Background(), "aarav@example.com", "correct-password")
	require.NoError(t, err)
	second, _, err := f.manager.Login(context.Background(), "aarav@example.com", "correct-password")
	require.NoError(t, err)

	_, err = f.manager.CurrentSession(context.Background(), first.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.manager.CurrentSession(context.Background(), second.Token)
	assert.NoError(t, err)
}

func TestDefaultCodeGeneratorShape(t *testing.T) {
	// The wired generator produces 4-digit numeric codes.
	code, err := utils.GenerateOTP()
	require.NoError(t, err)
	assert.Len(t, code, utils.OTPDigits)
}
