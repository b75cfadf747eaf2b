package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"payhub-backend/internal/domain"
	"payhub-backend/internal/lock"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository"
)

// ConflictPolicy decides what happens when a key is reused with a different request.
type ConflictPolicy string

const (
	// ConflictAllow stores the new request as an independent record under the same key.
	ConflictAllow  ConflictPolicy = "allow"
	ConflictReject ConflictPolicy = "reject"
)

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case "", ConflictAllow:
		return ConflictAllow, nil
	case ConflictReject:
		return ConflictReject, nil
	default:
		return "", fmt.Errorf("unknown idempotency conflict policy %q", s)
	}
}

type idempotencyService struct {
	repo   repository.IdempotencyRepository
	locker lock.Locker
	policy ConflictPolicy
}

func NewIdempotencyService(repo repository.IdempotencyRepository, locker lock.Locker, policy ConflictPolicy) IdempotencyService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	return &idempotencyService{repo: repo, locker: locker, policy: policy}
}

// NormalizeRequest renders request as canonical JSON: object keys sorted, numbers
// kept as written, no insignificant whitespace.
func NormalizeRequest(request any) ([]byte, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return json.Marshal(generic)
}

// RequestHash is the hex BLAKE2b-256 digest of the normalized request.
func RequestHash(normalized []byte) string {
	sum := blake2b.Sum256(normalized)
	return hex.EncodeToString(sum[:])
}

func (s *idempotencyService) GetOrExecute(ctx context.Context, key string, request any, execute func(ctx context.Context) (domain.StoredResponse, error)) (domain.StoredResponse, bool, error) {
	logger.EnterMethod("idempotencyService.GetOrExecute", "key", key)

	if key == "" {
		return domain.StoredResponse{}, false, domain.NewValidationError("idempotency_key", "idempotency key is required")
	}
	normalized, err := NormalizeRequest(request)
	if err != nil {
		return domain.StoredResponse{}, false, err
	}
	hash := RequestHash(normalized)

	held, err := s.locker.Acquire(ctx, "idempotency:"+key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			logger.Warn("Idempotency key is locked by another request", "key", key)
			return domain.StoredResponse{}, false, domain.ErrRequestInProgress
		}
		return domain.StoredResponse{}, false, err
	}
	defer func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release idempotency lock", "key", key, "error", err)
		}
	}()

	stored, err := s.repo.Get(ctx, key, hash)
	if err != nil {
		logger.ExitMethodWithError("idempotencyService.GetOrExecute", err, "key", key)
		return domain.StoredResponse{}, false, err
	}
	if stored != nil {
		logger.Info("Replaying stored response", "key", key, "responseCode", stored.ResponseCode)
		return toResponse(stored), true, nil
	}

	if s.policy == ConflictReject {
		exists, err := s.repo.ExistsForOtherRequest(ctx, key, hash)
		if err != nil {
			return domain.StoredResponse{}, false, err
		}
		if exists {
			logger.ExitMethodWithError("idempotencyService.GetOrExecute", domain.ErrIdempotencyConflict, "key", key)
			return domain.StoredResponse{}, false, domain.ErrIdempotencyConflict
		}
	}

	resp, err := execute(ctx)
	if err != nil {
		logger.ExitMethodWithError("idempotencyService.GetOrExecute", err, "key", key)
		return domain.StoredResponse{}, false, err
	}

	record := &domain.IdempotencyRecord{
		IdempotencyKey:  key,
		RequestHash:     hash,
		RequestBody:     string(normalized),
		ResponseCode:    resp.Code,
		ResponseBody:    string(resp.Body),
		LedgerReference: resp.LedgerReference,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if !errors.Is(err, domain.ErrDuplicateKey) {
			// the operation already happened; hand back its outcome
			logger.Error("Failed to store idempotent response", "key", key, "error", err)
			return resp, false, nil
		}
		winner, getErr := s.repo.Get(ctx, key, hash)
		if getErr != nil || winner == nil {
			logger.Warn("Concurrent request holds idempotency key", "key", key)
			return domain.StoredResponse{}, false, domain.ErrRequestInProgress
		}
		return toResponse(winner), true, nil
	}

	logger.ExitMethod("idempotencyService.GetOrExecute", "key", key, "responseCode", resp.Code)
	return resp, false, nil
}

func toResponse(rec *domain.IdempotencyRecord) domain.StoredResponse {
	return domain.StoredResponse{
		Code:            rec.ResponseCode,
		Body:            []byte(rec.ResponseBody),
		LedgerReference: rec.LedgerReference,
	}
}
