package lifecycle

import (
	"context"

	"github.com/aqibcreates/teachreach-backend/internal/models"
)

// Store is the persistence collaborator for accounts and the records that
// cascade with them. Implementations return ErrNotFound for absent records
// and ErrDuplicateEmail when a write violates email uniqueness, so the
// manager never has to know which database is behind it.
type Store interface {
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	FindAccountByID(ctx context.Context, id string) (*models.Account, error)
	InsertAccount(ctx context.Context, a *models.Account) error
	UpdateAccount(ctx context.Context, a *models.Account) error
	DeleteAccount(ctx context.Context, id string) error

	// Cascade targets. Both are idempotent: deleting zero rows is success.
	DeleteMessagesBySender(ctx context.Context, accountID string) (int64, error)
	DeleteReviewsByAuthor(ctx context.Context, accountID string) (int64, error)
}

// SessionStore holds the ambient Session for each authenticated account.
// Tokens outlive the process, which is how a prior session is reconstructed
// at startup.
type SessionStore interface {
	Create(ctx context.Context, account *models.Account) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	// Refresh replaces the cached account snapshot for an existing token.
	Refresh(ctx context.Context, token string, account *models.Account) error
	Invalidate(ctx context.Context, token string) error
	InvalidateAccount(ctx context.Context, accountID string) error
}

// CodeDelivery surfaces a one-time code to the user through an out-of-band
// channel. Delivery failure is not observable to the manager.
type CodeDelivery interface {
	DeliverCode(email, code string)
}

// ChangeNotifier receives best-effort notifications after account mutations
// so listeners (other instances, cached snapshots) can refresh. Optional;
// a nil notifier disables it.
type ChangeNotifier interface {
	AccountChanged(ctx context.Context, account *models.Account)
	AccountDeleted(ctx context.Context, accountID string)
}
