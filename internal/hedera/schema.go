package hedera

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	xerrors "github.com/SaucerHedge/agents/internal/errors"
)

// validateInput 按能力声明的 JSON-Schema 校验输入。模式缺失时不校验，
// 交由链上合约自行拒绝非法参数。
func validateInput(schema map[string]any, input map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if input == nil {
		input = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "输入模式校验失败")
	}
	if result.Valid() {
		return nil
	}

	reasons := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		reasons = append(reasons, desc.String())
	}
	return xerrors.Newf(xerrors.CodeInvalidArgument, "输入不符合能力模式: %s", strings.Join(reasons, "; "))
}
