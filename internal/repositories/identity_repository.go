package repositories

import (
	"webstudio/internal/models"
)

// IdentityRepository persists the identity of the current session.
type IdentityRepository interface {
	Load() (*models.User, error)
	Save(user *models.User) error
	Clear() error
}

// KVIdentityRepository is a KVStore implementation of IdentityRepository.
type KVIdentityRepository struct {
	store KVStore
}

// NewKVIdentityRepository creates a new instance of KVIdentityRepository.
func NewKVIdentityRepository(store KVStore) *KVIdentityRepository {
	return &KVIdentityRepository{store: store}
}

// Load returns the stored identity, or (nil, nil) if absent or corrupt.
func (r *KVIdentityRepository) Load() (*models.User, error) {
	var user models.User
	if err := loadJSON(r.store, KeyIdentity, &user); err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// Save replaces the stored identity.
func (r *KVIdentityRepository) Save(user *models.User) error {
	return saveJSON(r.store, KeyIdentity, user)
}

// Clear removes the stored identity.
func (r *KVIdentityRepository) Clear() error {
	return r.store.Delete(KeyIdentity)
}
