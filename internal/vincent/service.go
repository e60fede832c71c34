package vincent

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SaucerHedge/agents/internal/ability"
	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/pkg/logger"
)

const authBaseURL = "https://vincent.hedera.com/auth"

// Service 对接 Vincent Protocol 的委托授权流程：生成授权链接、校验
// 委托凭证、维护用户的授权范围。
type Service struct {
	appID       int
	redirectURI string
	store       ScopeStore
	catalog     ability.Source
	log         *slog.Logger
}

// NewService 创建 Vincent 授权服务。
func NewService(appID int, redirectURI string, store ScopeStore, catalog ability.Source) *Service {
	return &Service{
		appID:       appID,
		redirectURI: redirectURI,
		store:       store,
		catalog:     catalog,
		log:         logger.Named("vincent"),
	}
}

// AuthURL 为用户生成 Vincent 授权链接。
func (s *Service) AuthURL(userAddress string) (string, error) {
	if strings.TrimSpace(userAddress) == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "用户地址不能为空")
	}
	params := url.Values{}
	params.Set("app_id", strconv.Itoa(s.appID))
	params.Set("redirect_uri", s.redirectURI)
	params.Set("user", userAddress)
	params.Set("scope", "delegation")

	authURL := authBaseURL + "?" + params.Encode()
	s.log.Info("生成授权链接", slog.String("user", userAddress))
	return authURL, nil
}

// ValidateDelegation 校验委托凭证的形状。完整的签名验证依赖 Vincent
// 网络的公钥分发，上线前由网关完成，这里只做结构检查。
func (s *Service) ValidateDelegation(token string) bool {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}

// CreateScope 为用户创建委托授权，能力集合取自当前目录的短名。
func (s *Service) CreateScope(ctx context.Context, userAddress string, maxTransaction float64, validFor time.Duration) (Scope, error) {
	if strings.TrimSpace(userAddress) == "" {
		return Scope{}, xerrors.New(xerrors.CodeInvalidArgument, "用户地址不能为空")
	}

	cat := s.catalog.Snapshot()
	abilities := make([]string, 0, cat.Len())
	for _, desc := range cat.Descriptors() {
		abilities = append(abilities, desc.ShortName)
	}

	scope := Scope{
		UserAddress:    userAddress,
		MaxTransaction: maxTransaction,
		ExpiresAt:      time.Now().Add(validFor),
		Abilities:      abilities,
	}
	if err := s.store.Put(ctx, scope); err != nil {
		return Scope{}, err
	}
	s.log.Info("委托授权已创建", slog.String("user", userAddress), slog.Int("abilities", len(abilities)))
	return scope, nil
}

// ScopeOf 查询用户当前的委托授权。
func (s *Service) ScopeOf(ctx context.Context, userAddress string) (Scope, bool, error) {
	return s.store.Get(ctx, userAddress)
}
