package repositories

import (
	"fmt"
	"log"
	"sync"
	"time"

	"webstudio/internal/models"
)

// ChatHistoryRetention is how long chat messages are kept.
const ChatHistoryRetention = 30 * 24 * time.Hour

// PreferencesRepository persists the small UI preference records.
type PreferencesRepository struct {
	store KVStore
	now   func() time.Time
	mu    sync.Mutex
}

// NewPreferencesRepository creates a new instance of PreferencesRepository.
func NewPreferencesRepository(store KVStore, now func() time.Time) *PreferencesRepository {
	if now == nil {
		now = time.Now
	}
	return &PreferencesRepository{store: store, now: now}
}

func (r *PreferencesRepository) prune(msgs []models.ChatMessage) []models.ChatMessage {
	cutoff := r.now().Add(-ChatHistoryRetention)
	kept := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.After(cutoff) {
			kept = append(kept, m)
		}
	}
	return kept
}

// ChatHistory returns the chat messages newer than the retention window.
func (r *PreferencesRepository) ChatHistory() ([]models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var msgs []models.ChatMessage
	if err := loadJSON(r.store, KeyChatHistory, &msgs); err != nil {
		if isAbsent(err) {
			return []models.ChatMessage{}, nil
		}
		return nil, err
	}
	return r.prune(msgs), nil
}

// AppendChatMessage stores msg, pruning expired entries in the same write.
func (r *PreferencesRepository) AppendChatMessage(msg models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var msgs []models.ChatMessage
	if err := loadJSON(r.store, KeyChatHistory, &msgs); err != nil && !isAbsent(err) {
		return err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now()
	}
	msgs = append(r.prune(msgs), msg)
	return saveJSON(r.store, KeyChatHistory, msgs)
}

// CookieConsent returns the stored consent, or "" if none was given.
func (r *PreferencesRepository) CookieConsent() (models.CookieConsent, error) {
	var c models.CookieConsent
	if err := loadJSON(r.store, KeyCookieConsent, &c); err != nil {
		if isAbsent(err) {
			return "", nil
		}
		return "", err
	}
	switch c {
	case models.ConsentAccepted, models.ConsentDeclined:
		return c, nil
	}
	log.Printf("Discarding unknown cookie consent %q", c)
	discard(r.store, KeyCookieConsent)
	return "", nil
}

// SetCookieConsent stores the consent answer.
func (r *PreferencesRepository) SetCookieConsent(c models.CookieConsent) error {
	if c != models.ConsentAccepted && c != models.ConsentDeclined {
		return fmt.Errorf("invalid cookie consent: %s", c)
	}
	return saveJSON(r.store, KeyCookieConsent, c)
}

// Contrast returns the stored contrast preference and whether one is set.
func (r *PreferencesRepository) Contrast() (int, bool, error) {
	var v int
	if err := loadJSON(r.store, KeyContrast, &v); err != nil {
		if isAbsent(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if v < 0 || v > 100 {
		log.Printf("Discarding out of range contrast %d", v)
		discard(r.store, KeyContrast)
		return 0, false, nil
	}
	return v, true, nil
}

// SetContrast stores a contrast preference between 0 and 100.
func (r *PreferencesRepository) SetContrast(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("contrast must be between 0 and 100, got %d", v)
	}
	return saveJSON(r.store, KeyContrast, v)
}
