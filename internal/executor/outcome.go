package executor

// Outcome 是一次能力执行的结构化结果。成功与失败都以值的形式返回，
// 执行层不向调用方抛出异常。
type Outcome struct {
	identifier string
	success    bool
	txRef      string
	payload    map[string]any
	reason     string
}

// Success 构造成功结果。
func Success(identifier, txRef string, payload map[string]any) Outcome {
	return Outcome{identifier: identifier, success: true, txRef: txRef, payload: payload}
}

// Failure 构造失败结果，reason 是面向用户的失败说明。
func Failure(identifier, reason string) Outcome {
	return Outcome{identifier: identifier, reason: reason}
}

// OK 报告执行是否成功。
func (o Outcome) OK() bool { return o.success }

// Identifier 返回被执行能力的完整标识符。
func (o Outcome) Identifier() string { return o.identifier }

// TransactionRef 返回链上交易引用，失败时为空。
func (o Outcome) TransactionRef() string { return o.txRef }

// Payload 返回执行产出的数据载荷，失败时为 nil。
func (o Outcome) Payload() map[string]any { return o.payload }

// Reason 返回失败原因，成功时为空。
func (o Outcome) Reason() string { return o.reason }
