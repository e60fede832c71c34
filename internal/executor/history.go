package executor

import (
	"sync"
	"time"
)

const defaultHistoryMax = 256

// Invocation 是执行历史中的一条记录。
type Invocation struct {
	Identifier     string         `json:"identifier"`
	Timestamp      time.Time      `json:"timestamp"`
	Success        bool           `json:"success"`
	TransactionRef string         `json:"transaction_ref,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	DurationMillis int64          `json:"duration_ms"`
	Payload        map[string]any `json:"payload,omitempty"`
}

// History 保存最近的能力执行记录，容量固定，超出后先进先出淘汰。
type History struct {
	mu      sync.Mutex
	entries []Invocation
	max     int
}

// NewHistory 创建执行历史，max<=0 时使用默认容量。
func NewHistory(max int) *History {
	if max <= 0 {
		max = defaultHistoryMax
	}
	return &History{max: max}
}

// Record 追加一条执行记录。
func (h *History) Record(identifier string, outcome Outcome, elapsed time.Duration) {
	entry := Invocation{
		Identifier:     identifier,
		Timestamp:      time.Now(),
		Success:        outcome.OK(),
		TransactionRef: outcome.TransactionRef(),
		Reason:         outcome.Reason(),
		DurationMillis: elapsed.Milliseconds(),
		Payload:        outcome.Payload(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	if len(h.entries) > h.max {
		overflow := len(h.entries) - h.max
		h.entries = append(h.entries[:0:0], h.entries[overflow:]...)
	}
}

// Recent 返回最近的 limit 条记录（时间升序），limit<=0 时返回全部。
func (h *History) Recent(limit int) []Invocation {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Invocation, len(entries))
	copy(out, entries)
	return out
}

// ByIdentifier 返回指定能力的全部留存记录（时间升序）。
func (h *History) ByIdentifier(identifier string) []Invocation {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Invocation
	for _, e := range h.entries {
		if e.Identifier == identifier {
			out = append(out, e)
		}
	}
	return out
}

// Len 返回当前留存的记录数。
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
