package ability

import "strings"

// abilitySuffix 是能力包名约定的统一后缀，投影短名时剥离。
const abilitySuffix = "-ability"

// Descriptor 描述一个已发布的能力及其声明的输入模式。
type Descriptor struct {
	// Identifier 是全局唯一的能力标识，带命名空间，例如
	// "@saucerhedgevault/deposit-to-vault-ability"。
	Identifier string `json:"identifier"`
	// ShortName 是去掉命名空间与后缀的投影名，模型与用户只见到它。
	ShortName string `json:"short_name"`
	// Description 用于工具定义，帮助模型做意图匹配。
	Description string `json:"description"`
	// InputSchema 是 JSON-Schema 形式的输入声明，原样投影给模型。
	InputSchema map[string]any `json:"input_schema"`

	Version           string   `json:"version,omitempty"`
	IPFSCid           string   `json:"ipfs_cid,omitempty"`
	SupportedPolicies []string `json:"supported_policies,omitempty"`
}

// ShortNameOf 将能力标识投影为短名：剥离 "@scope/" 命名空间前缀与
// "-ability" 后缀。同一快照内该映射必须保持单射，由 NewCatalog 校验。
func ShortNameOf(identifier string) string {
	name := identifier
	if strings.HasPrefix(name, "@") {
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
	}
	return strings.TrimSuffix(name, abilitySuffix)
}
