package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sokolabs/sokobot-backend/internal/models"
)

// MemoryStore holds all data in memory for tests and local development
type MemoryStore struct {
	users     map[string]*models.User            // keyed by phone
	shops     map[string]*models.Shop            // keyed by ShopID
	snapshots map[string]*models.SessionSnapshot // keyed by phone

	// Mutexes for thread safety
	userMu     sync.RWMutex
	shopMu     sync.RWMutex
	snapshotMu sync.RWMutex

	// Counters for ID generation
	userCounter int
	shopCounter int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*models.User),
		shops:     make(map[string]*models.Shop),
		snapshots: make(map[string]*models.SessionSnapshot),
	}
}

// User operations

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if user.UserID == "" {
		m.userCounter++
		user.UserID = fmt.Sprintf("USR%05d", m.userCounter)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.Active = true

	m.users[user.Phone] = user
	return user, nil
}

func (m *MemoryStore) GetUserByPhone(_ context.Context, phone string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.Phone]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.Phone] = user
	return nil
}

// Shop operations

func (m *MemoryStore) CreateShop(_ context.Context, shop *models.Shop) (*models.Shop, error) {
	m.shopMu.Lock()
	defer m.shopMu.Unlock()

	// Recheck the name under the write lock before committing.
	for _, existing := range m.shops {
		if existing.Community == shop.Community && strings.EqualFold(existing.Name, shop.Name) {
			return nil, &NameTakenError{Name: shop.Name}
		}
	}

	if shop.ShopID == "" {
		m.shopCounter++
		shop.ShopID = fmt.Sprintf("SHP%05d", m.shopCounter)
	}
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = time.Now()
	shop.Active = true

	m.shops[shop.ShopID] = shop
	return shop, nil
}

func (m *MemoryStore) UpdateShop(_ context.Context, shop *models.Shop) error {
	m.shopMu.Lock()
	defer m.shopMu.Unlock()

	if _, exists := m.shops[shop.ShopID]; !exists {
		return ErrNotFound
	}
	shop.UpdatedAt = time.Now()
	m.shops[shop.ShopID] = shop
	return nil
}

func (m *MemoryStore) GetShopByOwner(_ context.Context, phone string) (*models.Shop, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	for _, shop := range m.shops {
		if shop.OwnerPhone == phone {
			return shop, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetShopsByCommunity(_ context.Context, community string) ([]*models.Shop, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	var shops []*models.Shop
	for _, shop := range m.shops {
		if shop.Community == community && shop.Active {
			shops = append(shops, shop)
		}
	}
	return shops, nil
}

func (m *MemoryStore) IsShopNameTaken(_ context.Context, name, community string) (bool, error) {
	m.shopMu.RLock()
	defer m.shopMu.RUnlock()

	for _, shop := range m.shops {
		if shop.Community == community && strings.EqualFold(shop.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

// Session snapshot operations

func (m *MemoryStore) UpsertSessionSnapshot(_ context.Context, snapshot *models.SessionSnapshot) error {
	m.snapshotMu.Lock()
	defer m.snapshotMu.Unlock()

	if existing, exists := m.snapshots[snapshot.Phone]; exists {
		snapshot.CreatedAt = existing.CreatedAt
	} else {
		snapshot.CreatedAt = time.Now()
	}
	snapshot.UpdatedAt = time.Now()
	m.snapshots[snapshot.Phone] = snapshot
	return nil
}

func (m *MemoryStore) GetSessionSnapshot(_ context.Context, phone string) (*models.SessionSnapshot, error) {
	m.snapshotMu.RLock()
	defer m.snapshotMu.RUnlock()

	snapshot, exists := m.snapshots[phone]
	if !exists {
		return nil, ErrNotFound
	}
	return snapshot, nil
}

func (m *MemoryStore) DeleteSessionSnapshot(_ context.Context, phone string) error {
	m.snapshotMu.Lock()
	defer m.snapshotMu.Unlock()

	delete(m.snapshots, phone)
	return nil
}
