package store

import (
	"context"
	"errors"

	"github.com/nhle/studyhub-notify/internal/model"
)

// ErrAccountNotFound is returned when no account has the requested ID.
var ErrAccountNotFound = errors.New("account not found")

// Store defines the persistence interface for configured StudyHub
// accounts. Tokens are not stored here.
type Store interface {
	UpsertAccount(ctx context.Context, acct model.Account) (model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// TouchAccount records that the account was just used; the most
	// recently used enabled account is opened by default.
	TouchAccount(ctx context.Context, id string) error
	LastUsedAccount(ctx context.Context) (*model.Account, error)

	Close() error
}
