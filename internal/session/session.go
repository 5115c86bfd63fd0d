package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "aibot:session:"
	defaultTTL = 10 * time.Minute
)

// Session is one pending login handshake, keyed by phone number. It
// lives in redis with a TTL so an abandoned handshake expires on its
// own and a second worker can serve the confirmation step.
type Session struct {
	Phone         string    `json:"phone"`
	CodeHash      string    `json:"code_hash"`
	StartedAt     time.Time `json:"started_at"`
	Authenticated bool      `json:"authenticated"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: defaultTTL}
}

func (s *Store) Put(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.rdb.Set(ctx, keyPrefix+sess.Phone, raw, s.ttl).Err()
}

// Get returns nil when no handshake is pending for the phone.
func (s *Store) Get(ctx context.Context, phone string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+phone).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *Store) Delete(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, keyPrefix+phone).Err()
}
