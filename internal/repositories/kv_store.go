package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Keys of the logical collections kept in the KV store.
const (
	KeyIdentity      = "webstudio.identity"
	KeyOrders        = "webstudio.orders"
	KeyChatHistory   = "webstudio.chat_history"
	KeyCookieConsent = "webstudio.cookie_consent"
	KeyContrast      = "webstudio.contrast"
)

var (
	// ErrKeyNotFound is returned by KVStore.Get for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrStorageCorrupt marks a stored record that could not be decoded.
	// The record has already been discarded when this is returned.
	ErrStorageCorrupt = errors.New("stored record is corrupt")
)

// KVStore defines the interface for the persistent key-value store.
type KVStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// loadJSON decodes the record under key into v.
// A record that fails to decode is deleted and ErrStorageCorrupt is returned.
func loadJSON(store KVStore, key string, v any) error {
	raw, err := store.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("Discarding corrupt record %s: %v", key, err)
		discard(store, key)
		return fmt.Errorf("%w: %s", ErrStorageCorrupt, key)
	}
	return nil
}

// discard deletes a record that cannot be used. A failed delete is only logged.
func discard(store KVStore, key string) {
	if err := store.Delete(key); err != nil {
		log.Printf("Failed to discard corrupt record %s: %v", key, err)
	}
}

// saveJSON encodes v and stores it under key.
func saveJSON(store KVStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	if err := store.Set(key, raw); err != nil {
		return fmt.Errorf("failed to store record %s: %w", key, err)
	}
	return nil
}

// isAbsent reports whether err means the record should be treated as missing.
func isAbsent(err error) bool {
	return errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrStorageCorrupt)
}
