package conversation

import (
	"sync"

	"github.com/SaucerHedge/agents/internal/llm"
)

// defaultMaxTurns 是每个用户保留的最大消息数，超出后从最旧的开始淘汰。
const defaultMaxTurns = 50

// Store 按用户维护有界的对话历史。追加与淘汰在同一把锁内完成，
// 并发的同键读改写不会丢更新；编排器只读历史，追加由调用方负责。
type Store struct {
	mu       sync.Mutex
	byUser   map[string][]llm.Turn
	maxTurns int
}

// NewStore 创建对话存储。maxTurns 不合法时使用默认上限。
func NewStore(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Store{
		byUser:   make(map[string][]llm.Turn),
		maxTurns: maxTurns,
	}
}

// Get 返回指定用户的历史副本，按时间顺序排列；无历史时返回空切片。
func (s *Store) Get(userID string) []llm.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.byUser[userID]
	out := make([]llm.Turn, len(history))
	copy(out, history)
	return out
}

// Append 追加一条消息，随后从头部淘汰直到不超过上限。
func (s *Store) Append(userID string, turn llm.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.byUser[userID], turn)
	if excess := len(history) - s.maxTurns; excess > 0 {
		history = append([]llm.Turn(nil), history[excess:]...)
	}
	s.byUser[userID] = history
}

// Clear 清空指定用户的历史。
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

// ActiveUsers 返回当前持有历史的用户数。
func (s *Store) ActiveUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}
