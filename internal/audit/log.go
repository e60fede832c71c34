package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// defaultMaxEntries 是执行日志保留的最大条数，超出后 FIFO 淘汰。
	defaultMaxEntries = 1000
	// defaultQueryLimit 是查询时未指定 limit 的默认窗口。
	defaultQueryLimit = 10
)

// Entry 记录一轮对话的终态，写入后不再修改。
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	UserMessage    string    `json:"user_message"`
	ToolUsed       string    `json:"tool_used,omitempty"`
	Outcome        string    `json:"outcome"`
	Detail         string    `json:"detail,omitempty"`
	DurationMillis int64     `json:"duration_ms"`
}

// Log 是进程内有界的只追加执行日志。
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	total   uint64
}

// NewLog 创建执行日志。maxEntries 不合法时使用默认上限。
func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Log{max: maxEntries}
}

// Record 追加一条记录，随后从头部淘汰直到不超过上限。
func (l *Log) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	l.entries = append(l.entries, entry)
	if excess := len(l.entries) - l.max; excess > 0 {
		l.entries = append([]Entry(nil), l.entries[excess:]...)
	}
}

// Query 返回最近 limit 条记录，按时间顺序排列；userID 非空时只返回
// 该用户的记录。
func (l *Log) Query(userID string, limit int) []Entry {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	matched := make([]Entry, 0, limit)
	if userID == "" {
		matched = append(matched, l.entries...)
	} else {
		for _, entry := range l.entries {
			if entry.UserID == userID {
				matched = append(matched, entry)
			}
		}
	}

	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	out := make([]Entry, len(matched))
	copy(out, matched)
	return out
}

// Len 返回当前保留的记录数。
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Total 返回进程启动以来累计记录的轮数（含已淘汰部分）。
func (l *Log) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
