// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/toeirei/walletkeeper/internal/model"
)

// MemoryStore is an in-process Store. It is safe for concurrent use and
// enforces the same insert-only contract as the persistent backends.
type MemoryStore struct {
	mu     sync.RWMutex
	keys   map[string]model.WalletKey
	audit  []model.AuditLogEntry
	closed bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]model.WalletKey)}
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return mapCtxError(ctx, err)
	}
	if s.closed {
		return ErrUnavailable
	}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, rec model.WalletKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.keys[rec.UserID]; ok {
		return ErrDuplicate
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	s.keys[rec.UserID] = rec
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*model.WalletKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	rec, ok := s.keys[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) ListWalletKeys(ctx context.Context) ([]model.WalletKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.WalletKey, 0, len(s.keys))
	for _, rec := range s.keys {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) LogAction(ctx context.Context, action, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.audit = append(s.audit, model.AuditLogEntry{
		ID:        len(s.audit) + 1,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Username:  currentUsername(),
		Action:    action,
		Details:   details,
	})
	return nil
}

func (s *MemoryStore) GetAuditLog(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.AuditLogEntry, 0, len(s.audit))
	for i := len(s.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}

// Close marks the store unavailable. Records are kept.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
