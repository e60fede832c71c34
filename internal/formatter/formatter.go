package formatter

import (
	"fmt"

	"github.com/SaucerHedge/agents/internal/hedera"
)

// Renderer 把一次成功执行的载荷渲染为面向用户的 Markdown 文本。
// 渲染必须是全函数：任何载荷形状都要产出文本，缺失字段用占位符补齐。
type Renderer interface {
	Render(txRef string, payload map[string]any, context string) string
}

// RendererFunc 是 Renderer 的函数适配器。
type RendererFunc func(txRef string, payload map[string]any, context string) string

// Render 实现 Renderer。
func (f RendererFunc) Render(txRef string, payload map[string]any, context string) string {
	return f(txRef, payload, context)
}

// Registry 按能力完整标识符查找 Renderer，没有专用模板时回退到通用模板。
type Registry struct {
	network   string
	renderers map[string]Renderer
}

// NewRegistry 创建模板注册表并装入内置的六个能力模板。
func NewRegistry(network string) *Registry {
	r := &Registry{
		network:   network,
		renderers: make(map[string]Renderer),
	}
	r.registerBuiltins()
	return r
}

// Register 为能力标识符注册（或覆盖）模板。
func (r *Registry) Register(identifier string, renderer Renderer) {
	r.renderers[identifier] = renderer
}

// Render 渲染一次成功执行的结果。
func (r *Registry) Render(identifier, txRef string, payload map[string]any, context string) string {
	if renderer, ok := r.renderers[identifier]; ok {
		return renderer.Render(txRef, payload, context)
	}
	return fmt.Sprintf("✅ **%s** executed successfully!\n\nTX: [%s](%s)",
		identifier, txRef, r.txURL(txRef))
}

func (r *Registry) txURL(txRef string) string {
	return hedera.HashScanURL(r.network, txRef)
}

// numField 取数值字段，缺失或类型不符时返回 0 与 false。
func numField(payload map[string]any, key string) (float64, bool) {
	switch value := payload[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}

// money 渲染两位小数金额，字段缺失时给出占位符。
func money(payload map[string]any, key string) string {
	if v, ok := numField(payload, key); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}

// percent 渲染一位小数百分比。
func percent(payload map[string]any, key string) string {
	if v, ok := numField(payload, key); ok {
		return fmt.Sprintf("%.1f", v)
	}
	return "n/a"
}

// plain 渲染任意字段的原样文本。
func plain(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok && v != nil {
		if f, isNum := numField(payload, key); isNum && f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%v", v)
	}
	return "n/a"
}
