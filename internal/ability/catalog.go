package ability

import (
	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/internal/llm"
)

// Catalog 是能力集合的一份不可变快照。一次对话轮内使用同一份快照，
// 后台刷新只会整体替换快照，不会让进行中的轮看到半更新状态。
type Catalog struct {
	ordered []Descriptor
	byID    map[string]*Descriptor
	byShort map[string]*Descriptor
}

// NewCatalog 根据描述列表构建快照。两个标识投影到同一短名属于配置错误，
// 必须在任何模型调用之前拒绝整个快照。
func NewCatalog(descriptors []Descriptor) (*Catalog, error) {
	cat := &Catalog{
		ordered: make([]Descriptor, 0, len(descriptors)),
		byID:    make(map[string]*Descriptor, len(descriptors)),
		byShort: make(map[string]*Descriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		if desc.Identifier == "" {
			return nil, xerrors.New(xerrors.CodeConfiguration, "能力标识不能为空")
		}
		if desc.ShortName == "" {
			desc.ShortName = ShortNameOf(desc.Identifier)
		}
		if _, ok := cat.byID[desc.Identifier]; ok {
			return nil, xerrors.Newf(xerrors.CodeConfiguration, "能力标识重复: %s", desc.Identifier)
		}
		if existing, ok := cat.byShort[desc.ShortName]; ok {
			return nil, xerrors.Newf(xerrors.CodeConfiguration,
				"短名冲突: %s 与 %s 均投影为 %s", existing.Identifier, desc.Identifier, desc.ShortName)
		}
		cat.ordered = append(cat.ordered, desc)
		stored := &cat.ordered[len(cat.ordered)-1]
		cat.byID[desc.Identifier] = stored
		cat.byShort[desc.ShortName] = stored
	}
	return cat, nil
}

// ByIdentifier 按标识查找能力描述。
func (c *Catalog) ByIdentifier(identifier string) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	desc, ok := c.byID[identifier]
	return desc, ok
}

// ByShortName 按投影短名查找能力描述。
func (c *Catalog) ByShortName(shortName string) (*Descriptor, bool) {
	if c == nil {
		return nil, false
	}
	desc, ok := c.byShort[shortName]
	return desc, ok
}

// Tools 把快照投影为呈现给模型的工具定义列表。纯函数：对同一快照
// 输出确定且与描述字段逐项一致。
func (c *Catalog) Tools() []llm.ToolDefinition {
	if c == nil {
		return nil
	}
	tools := make([]llm.ToolDefinition, 0, len(c.ordered))
	for _, desc := range c.ordered {
		tools = append(tools, llm.ToolDefinition{
			Name:        desc.ShortName,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
		})
	}
	return tools
}

// Descriptors 返回快照内全部能力描述的副本。
func (c *Catalog) Descriptors() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len 返回快照内能力数量。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}

// Source 提供当前生效的目录快照，实现方负责快照的整体替换。
type Source interface {
	Snapshot() *Catalog
}

// StaticSource 固定返回构建时给定的快照，用于测试与离线运行。
type StaticSource struct {
	catalog *Catalog
}

// NewStaticSource 根据描述列表构建固定目录源。
func NewStaticSource(descriptors []Descriptor) (*StaticSource, error) {
	cat, err := NewCatalog(descriptors)
	if err != nil {
		return nil, err
	}
	return &StaticSource{catalog: cat}, nil
}

// Snapshot 实现 Source 接口。
func (s *StaticSource) Snapshot() *Catalog {
	return s.catalog
}

var _ Source = (*StaticSource)(nil)
