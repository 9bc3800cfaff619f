package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"markline/backend/config"
)

// ── key layout ──

func keyEmployeeState(passID uint) string  { return fmt.Sprintf("employee_state:%d", passID) }
func keySessionLock(passID uint) string    { return fmt.Sprintf("session_lock:%d", passID) }
func keyOrderMode(orderID uint) string     { return fmt.Sprintf("order_mode:%d", orderID) }
func keyTrainedModel(orderID uint) string  { return fmt.Sprintf("trained_model:%d", orderID) }
func keySetsToCheck(orderID uint) string   { return fmt.Sprintf("correction:sets_to_check:%d", orderID) }
func keyScannedOK(orderID uint) string     { return fmt.Sprintf("correction:scanned_ok:%d", orderID) }
func keyScannedError(orderID uint) string  { return fmt.Sprintf("correction:scanned_error:%d", orderID) }
func keyPendingConfirm(passID uint) string { return fmt.Sprintf("correction:pending_confirm:%d", passID) }
func keySSCCSerial(orderID uint) string    { return fmt.Sprintf("sscc:serial:%d", orderID) }

// RedisStore is the production Store implementation.
type RedisStore struct {
	rdb               *goredis.Client
	stateTTL          time.Duration
	sessionLockTTL    time.Duration
	pendingConfirmTTL time.Duration
}

// NewRedisStore wraps a connected redis client with the session-store
// key layout and TTL policy.
func NewRedisStore(rdb *goredis.Client, cfg *config.AggregationConfig) *RedisStore {
	return &RedisStore{
		rdb:               rdb,
		stateTTL:          cfg.StateTTL,
		sessionLockTTL:    cfg.SessionLockTTL,
		pendingConfirmTTL: cfg.PendingConfirmTTL,
	}
}

// ── employee state ──

func (s *RedisStore) GetEmployeeState(ctx context.Context, passID uint) (*EmployeeState, error) {
	raw, err := s.rdb.Get(ctx, keyEmployeeState(passID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st EmployeeState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode employee state: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) SaveEmployeeState(ctx context.Context, passID uint, st *EmployeeState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode employee state: %w", err)
	}
	return s.rdb.Set(ctx, keyEmployeeState(passID), raw, s.stateTTL).Err()
}

func (s *RedisStore) ClearEmployeeState(ctx context.Context, passID uint) error {
	return s.rdb.Del(ctx, keyEmployeeState(passID)).Err()
}

// ── session lock ──

func (s *RedisStore) AcquireSessionLock(ctx context.Context, passID uint) (bool, error) {
	return s.rdb.SetNX(ctx, keySessionLock(passID), "1", s.sessionLockTTL).Result()
}

func (s *RedisStore) ReleaseSessionLock(ctx context.Context, passID uint) error {
	return s.rdb.Del(ctx, keySessionLock(passID)).Err()
}

// ── order mode ──

func (s *RedisStore) GetOrderMode(ctx context.Context, orderID uint) (Mode, error) {
	raw, err := s.rdb.Get(ctx, keyOrderMode(orderID)).Result()
	if errors.Is(err, goredis.Nil) {
		return ModeOperational, nil
	}
	if err != nil {
		return "", err
	}
	return Mode(raw), nil
}

func (s *RedisStore) SetOrderMode(ctx context.Context, orderID uint, mode Mode) error {
	return s.rdb.Set(ctx, keyOrderMode(orderID), string(mode), 0).Err()
}

// ── trained model ──

func (s *RedisStore) GetCodeModel(ctx context.Context, orderID uint) (*CodeModel, error) {
	raw, err := s.rdb.Get(ctx, keyTrainedModel(orderID)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m CodeModel
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode code model: %w", err)
	}
	return &m, nil
}

func (s *RedisStore) SaveCodeModel(ctx context.Context, orderID uint, m *CodeModel) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode code model: %w", err)
	}
	// the model survives operator sessions; no TTL
	return s.rdb.Set(ctx, keyTrainedModel(orderID), raw, 0).Err()
}

// ── correction accounting ──

func (s *RedisStore) ReplaceSetsToCheck(ctx context.Context, orderID uint, codes []string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, keySetsToCheck(orderID), keyScannedOK(orderID), keyScannedError(orderID))
	if len(codes) > 0 {
		members := make([]interface{}, len(codes))
		for i, c := range codes {
			members[i] = c
		}
		pipe.SAdd(ctx, keySetsToCheck(orderID), members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) IsSetToCheck(ctx context.Context, orderID uint, code string) (bool, error) {
	return s.rdb.SIsMember(ctx, keySetsToCheck(orderID), code).Result()
}

// ConfirmErrorSet moves a confirmed erroneous parent out of the recheck
// set and into the error accounting in one transaction, clearing the
// pass's pending slot.
func (s *RedisStore) ConfirmErrorSet(ctx context.Context, orderID, passID uint, code string) error {
	pipe := s.rdb.TxPipeline()
	pipe.SRem(ctx, keySetsToCheck(orderID), code)
	pipe.SAdd(ctx, keyScannedError(orderID), code)
	pipe.Del(ctx, keyPendingConfirm(passID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) AddScannedOK(ctx context.Context, orderID uint, code string) error {
	return s.rdb.SAdd(ctx, keyScannedOK(orderID), code).Err()
}

func (s *RedisStore) CorrectionStats(ctx context.Context, orderID uint) (*CorrectionStats, error) {
	pipe := s.rdb.Pipeline()
	remaining := pipe.SCard(ctx, keySetsToCheck(orderID))
	ok := pipe.SCard(ctx, keyScannedOK(orderID))
	bad := pipe.SCard(ctx, keyScannedError(orderID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &CorrectionStats{
		Remaining:    remaining.Val(),
		ScannedOK:    ok.Val(),
		ScannedError: bad.Val(),
	}, nil
}

func (s *RedisStore) CorrectionSets(ctx context.Context, orderID uint) (remaining, ok, errored []string, err error) {
	if remaining, err = s.rdb.SMembers(ctx, keySetsToCheck(orderID)).Result(); err != nil {
		return nil, nil, nil, err
	}
	if ok, err = s.rdb.SMembers(ctx, keyScannedOK(orderID)).Result(); err != nil {
		return nil, nil, nil, err
	}
	if errored, err = s.rdb.SMembers(ctx, keyScannedError(orderID)).Result(); err != nil {
		return nil, nil, nil, err
	}
	return remaining, ok, errored, nil
}

func (s *RedisStore) ClearCorrection(ctx context.Context, orderID uint) error {
	return s.rdb.Del(ctx, keySetsToCheck(orderID), keyScannedOK(orderID), keyScannedError(orderID)).Err()
}

// ── pending confirmation ──

func (s *RedisStore) SetPendingConfirm(ctx context.Context, passID uint, code string) error {
	return s.rdb.Set(ctx, keyPendingConfirm(passID), code, s.pendingConfirmTTL).Err()
}

func (s *RedisStore) GetPendingConfirm(ctx context.Context, passID uint) (string, error) {
	raw, err := s.rdb.Get(ctx, keyPendingConfirm(passID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return raw, err
}

func (s *RedisStore) ClearPendingConfirm(ctx context.Context, passID uint) error {
	return s.rdb.Del(ctx, keyPendingConfirm(passID)).Err()
}

// ── SSCC serial ──

func (s *RedisStore) NextSSCCSerial(ctx context.Context, orderID uint) (int64, error) {
	return s.rdb.Incr(ctx, keySSCCSerial(orderID)).Result()
}
