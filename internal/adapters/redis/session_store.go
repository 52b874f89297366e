// Package redis provides Redis-based adapters for the gravure system.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/inkform/gravure-api/internal/domain/auth"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// SessionStore is a Redis-based session store for production use. Keys carry
// a TTL derived from the session ExpiresAt, and a per-user set of session IDs
// supports revoking every session of a UID at once.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client, prefix: "session:"}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (s *SessionStore) sessionKey(id string) string { return s.prefix + id }
func (s *SessionStore) uidKey(uid string) string    { return s.prefix + "uid:" + uid }

// Put stores the session until its expiry.
func (s *SessionStore) Put(ctx context.Context, sess *domainauth.Session) error {
	if sess == nil || sess.ID == "" {
		return apperrors.Validation("session ID cannot be empty")
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return apperrors.Validation("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(err, "marshal session")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(sess.ID), data, ttl)
	pipe.SAdd(ctx, s.uidKey(sess.UID), sess.ID)
	pipe.Expire(ctx, s.uidKey(sess.UID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Wrap(err, "redis set session")
	}
	return nil
}

// Get returns the session for the ID, or a not-found error when the ID is
// unknown or the session has expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*domainauth.Session, error) {
	if id == "" {
		return nil, apperrors.NotFound("Session not found")
	}

	data, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("Session not found")
		}
		return nil, apperrors.Wrap(err, "redis get session")
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return nil, apperrors.Wrap(unmarshalErr, "unmarshal session")
	}

	// Redis TTL normally expires the key first; the payload check covers
	// clock drift between writers.
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return nil, apperrors.Wrap(deleteErr, "cleanup expired session")
		}
		return nil, apperrors.NotFound("Session not found")
	}

	return &sess, nil
}

// Delete removes the session. Deleting an unknown ID is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	sess, err := s.Get(ctx, id)
	if apperrors.IsNotFound(err) {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(id))
	if err == nil {
		pipe.SRem(ctx, s.uidKey(sess.UID), id)
	}
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return apperrors.Wrap(execErr, "redis delete session")
	}
	return nil
}

// DeleteByUID removes every session belonging to the UID.
func (s *SessionStore) DeleteByUID(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}

	ids, err := s.client.SMembers(ctx, s.uidKey(uid)).Result()
	if err != nil {
		return apperrors.Wrap(err, "redis list sessions for uid")
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.sessionKey(id))
	}
	pipe.Del(ctx, s.uidKey(uid))
	if _, execErr := pipe.Exec(ctx); execErr != nil {
		return apperrors.Wrap(execErr, "redis delete sessions for uid")
	}
	return nil
}

// Touch extends the session's expiry.
func (s *SessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt
	return s.Put(ctx, sess)
}
