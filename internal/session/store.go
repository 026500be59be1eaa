package session

import (
	"encoding/json"
	"fmt"
	"log"

	"dashboard/internal/models"
)

// Keys of the persisted record.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// KV is a durable key/value medium that survives restarts.
// storage.DB satisfies it.
type KV interface {
	Get(key string) (string, bool, error)
	Put(pairs map[string]string) error
	Delete(keys ...string) error
}

// Store is the persistent session store: the serialized identity and the raw
// bearer credential, always written and purged together.
type Store struct {
	kv     KV
	logger *log.Logger
}

// NewStore wraps kv. A nil logger uses log.Default().
func NewStore(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the raw identity and token entries.
func (s *Store) Load() (rawUser string, hasUser bool, token string, hasToken bool, err error) {
	rawUser, hasUser, err = s.kv.Get(KeyUser)
	if err != nil {
		return "", false, "", false, fmt.Errorf("read %s: %w", KeyUser, err)
	}
	token, hasToken, err = s.kv.Get(KeyToken)
	if err != nil {
		return "", false, "", false, fmt.Errorf("read %s: %w", KeyToken, err)
	}
	return rawUser, hasUser, token, hasToken, nil
}

// Save persists identity and token in one write.
func (s *Store) Save(id *models.Identity, token string) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.kv.Put(map[string]string{KeyUser: string(data), KeyToken: token}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Purge removes both keys.
func (s *Store) Purge() error {
	if err := s.kv.Delete(KeyUser, KeyToken); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}

// Token implements api.CredentialSource. It reads the store on every call.
func (s *Store) Token() (string, bool) {
	token, ok, err := s.kv.Get(KeyToken)
	if err != nil {
		s.logger.Printf("[session] read token: %v", err)
		return "", false
	}
	return token, ok && token != ""
}
