package vincent

import (
	"context"
	"sync"
	"time"
)

// Scope 描述一份委托授权：用户允许代理在限额与有效期内代表其调用
// 声明的能力集合。
type Scope struct {
	UserAddress    string    `json:"user_address"`
	MaxTransaction float64   `json:"max_transaction"`
	ExpiresAt      time.Time `json:"expires_at"`
	Abilities      []string  `json:"abilities"`
}

// Expired 报告授权是否已过期。
func (s Scope) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// ScopeStore 保存用户的委托授权。
type ScopeStore interface {
	Put(ctx context.Context, scope Scope) error
	Get(ctx context.Context, userAddress string) (Scope, bool, error)
	Delete(ctx context.Context, userAddress string) error
}

// MemoryStore 是进程内的授权存储，过期的授权在读取时剔除。
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]Scope
}

// NewMemoryStore 创建内存授权存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]Scope)}
}

// Put 实现 ScopeStore。
func (m *MemoryStore) Put(_ context.Context, scope Scope) error {
	m.mu.Lock()
	m.scopes[scope.UserAddress] = scope
	m.mu.Unlock()
	return nil
}

// Get 实现 ScopeStore。
func (m *MemoryStore) Get(_ context.Context, userAddress string) (Scope, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scope, ok := m.scopes[userAddress]
	if !ok {
		return Scope{}, false, nil
	}
	if scope.Expired(time.Now()) {
		delete(m.scopes, userAddress)
		return Scope{}, false, nil
	}
	return scope, true, nil
}

// Delete 实现 ScopeStore。
func (m *MemoryStore) Delete(_ context.Context, userAddress string) error {
	m.mu.Lock()
	delete(m.scopes, userAddress)
	m.mu.Unlock()
	return nil
}

var _ ScopeStore = (*MemoryStore)(nil)
