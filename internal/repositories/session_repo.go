package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nft-checkout/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	counterKey = "sessions:counter"
	pendingSet = "sessions:pending"
	unsweptSet = "sessions:unswept"
)

// casScript swaps the stored session JSON only if its current status matches
// ARGV[1], preserving the remaining TTL. This is the guard that makes
// concurrent lifecycle invocations produce exactly one status transition.
var casScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return -1
end
local obj = cjson.decode(raw)
if obj['status'] ~= ARGV[1] then
  return 0
end
local ttl = redis.call('PTTL', KEYS[1])
redis.call('SET', KEYS[1], ARGV[2])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// SessionRepo stores session records as JSON in redis with a TTL, plus the
// global index counter and the pending/unswept index sets the background
// loops work from.
type SessionRepo struct {
	rdb *redis.Client
}

func NewSessionRepo(rdb *redis.Client) *SessionRepo {
	return &SessionRepo{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

func mintLockKey(id string) string {
	return "session:" + id + ":mintlock"
}

// NextIndex atomically increments and returns the global session index.
func (r *SessionRepo) NextIndex(ctx context.Context) (uint32, error) {
	n, err := r.rdb.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("increment session counter: %w", err)
	}
	return uint32(n), nil
}

// CurrentIndex returns the counter without advancing it (recovery scan).
func (r *SessionRepo) CurrentIndex(ctx context.Context) (uint32, error) {
	val, err := r.rdb.Get(ctx, counterKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n uint32
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return 0, fmt.Errorf("parse session counter %q: %w", val, err)
	}
	return n, nil
}

func (r *SessionRepo) Create(ctx context.Context, s *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(s.SessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := r.rdb.SAdd(ctx, pendingSet, s.SessionID).Err(); err != nil {
		return fmt.Errorf("index pending session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// CompareAndSetStatus writes the mutated session only if the stored record is
// still in fromStatus. Returns false when another invocation won the race.
func (r *SessionRepo) CompareAndSetStatus(ctx context.Context, fromStatus string, s *models.Session) (bool, error) {
	if !models.IsValidTransition(fromStatus, s.Status) {
		return false, fmt.Errorf("invalid transition from %s to %s", fromStatus, s.Status)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return false, err
	}
	res, err := casScript.Run(ctx, r.rdb, []string{sessionKey(s.SessionID)}, fromStatus, string(data)).Int()
	if err != nil {
		return false, fmt.Errorf("cas session status: %w", err)
	}
	switch res {
	case -1:
		return false, ErrSessionNotFound
	case 0:
		return false, nil
	default:
		return true, nil
	}
}

// UpdateInPlace rewrites a session without a status change (sweep signature
// backfill). The record must already be in its final status.
func (r *SessionRepo) UpdateInPlace(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	res, err := casScript.Run(ctx, r.rdb, []string{sessionKey(s.SessionID)}, s.Status, string(data)).Int()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res == -1 {
		return ErrSessionNotFound
	}
	if res == 0 {
		return fmt.Errorf("session %s changed status concurrently", s.SessionID)
	}
	return nil
}

// AcquireMintLock takes the per-session mint lock. Exactly one holder; the
// TTL bounds how long a crashed holder can block recovery.
func (r *SessionRepo) AcquireMintLock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return r.rdb.SetNX(ctx, mintLockKey(id), "1", ttl).Result()
}

func (r *SessionRepo) ReleaseMintLock(ctx context.Context, id string) {
	r.rdb.Del(ctx, mintLockKey(id))
}

func (r *SessionRepo) ListPending(ctx context.Context) ([]string, error) {
	return r.rdb.SMembers(ctx, pendingSet).Result()
}

func (r *SessionRepo) RemovePending(ctx context.Context, id string) error {
	return r.rdb.SRem(ctx, pendingSet, id).Err()
}

func (r *SessionRepo) MarkUnswept(ctx context.Context, id string) error {
	return r.rdb.SAdd(ctx, unsweptSet, id).Err()
}

func (r *SessionRepo) ClearUnswept(ctx context.Context, id string) error {
	return r.rdb.SRem(ctx, unsweptSet, id).Err()
}

func (r *SessionRepo) ListUnswept(ctx context.Context) ([]string, error) {
	return r.rdb.SMembers(ctx, unsweptSet).Result()
}
