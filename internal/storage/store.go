package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/sokolabs/sokobot-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist. It is the only
// storage error callers branch on; everything else is logged and treated
// as best-effort.
var ErrNotFound = errors.New("record not found")

// NameTakenError reports a shop name collision within a community. Its
// message is surfaced to the user verbatim.
type NameTakenError struct {
	Name string
}

func (e *NameTakenError) Error() string {
	return fmt.Sprintf("the shop name %q is already taken in your community", e.Name)
}

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// Shop operations
	CreateShop(ctx context.Context, shop *models.Shop) (*models.Shop, error)
	UpdateShop(ctx context.Context, shop *models.Shop) error
	GetShopByOwner(ctx context.Context, phone string) (*models.Shop, error)
	GetShopsByCommunity(ctx context.Context, community string) ([]*models.Shop, error)
	IsShopNameTaken(ctx context.Context, name, community string) (bool, error)

	// Session snapshot operations
	UpsertSessionSnapshot(ctx context.Context, snapshot *models.SessionSnapshot) error
	GetSessionSnapshot(ctx context.Context, phone string) (*models.SessionSnapshot, error)
	DeleteSessionSnapshot(ctx context.Context, phone string) error
}
