package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sokolabs/sokobot-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/Postgres
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed storage
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (d *DatabaseStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (d *DatabaseStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DatabaseStore) UpdateUser(ctx context.Context, user *models.User) error {
	return d.db.WithContext(ctx).Save(user).Error
}

// Shop operations

func (d *DatabaseStore) CreateShop(ctx context.Context, shop *models.Shop) (*models.Shop, error) {
	// Recheck before commit; uniqueness is not enforced at the schema level.
	taken, err := d.IsShopNameTaken(ctx, shop.Name, shop.Community)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &NameTakenError{Name: shop.Name}
	}

	if err := d.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

func (d *DatabaseStore) UpdateShop(ctx context.Context, shop *models.Shop) error {
	return d.db.WithContext(ctx).Save(shop).Error
}

func (d *DatabaseStore) GetShopByOwner(ctx context.Context, phone string) (*models.Shop, error) {
	var shop models.Shop
	err := d.db.WithContext(ctx).Where("owner_phone = ?", phone).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (d *DatabaseStore) GetShopsByCommunity(ctx context.Context, community string) ([]*models.Shop, error) {
	var shops []*models.Shop
	err := d.db.WithContext(ctx).
		Where("community = ? AND active = ?", community, true).
		Order("name").Find(&shops).Error
	if err != nil {
		return nil, err
	}
	return shops, nil
}

func (d *DatabaseStore) IsShopNameTaken(ctx context.Context, name, community string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Shop{}).
		Where("community = ? AND LOWER(name) = LOWER(?)", community, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Session snapshot operations

func (d *DatabaseStore) UpsertSessionSnapshot(ctx context.Context, snapshot *models.SessionSnapshot) error {
	var existing models.SessionSnapshot
	err := d.db.WithContext(ctx).Where("phone = ?", snapshot.Phone).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.db.WithContext(ctx).Create(snapshot).Error
	}
	if err != nil {
		return err
	}

	existing.CurrentFlow = snapshot.CurrentFlow
	existing.Role = snapshot.Role
	existing.Community = snapshot.Community
	existing.Scratch = snapshot.Scratch
	existing.LastActivityAt = snapshot.LastActivityAt
	existing.ExpiresAt = snapshot.ExpiresAt
	return d.db.WithContext(ctx).Save(&existing).Error
}

func (d *DatabaseStore) GetSessionSnapshot(ctx context.Context, phone string) (*models.SessionSnapshot, error) {
	var snapshot models.SessionSnapshot
	err := d.db.WithContext(ctx).Where("phone = ?", phone).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (d *DatabaseStore) DeleteSessionSnapshot(ctx context.Context, phone string) error {
	return d.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.SessionSnapshot{}).Error
}
