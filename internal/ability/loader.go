package ability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	xerrors "github.com/SaucerHedge/agents/internal/errors"
	"github.com/SaucerHedge/agents/pkg/logger"
)

const (
	defaultRegistry     = "https://registry.npmjs.org"
	defaultFetchTimeout = 10 * time.Second
)

// Manifest 列出需要加载的能力包，来源于 configs/abilities.yaml。
type Manifest struct {
	Registry  string   `yaml:"registry"`
	Abilities []string `yaml:"abilities"`
}

// LoadManifest 解析能力清单文件。
func LoadManifest(path string) (Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return Manifest{}, xerrors.New(xerrors.CodeConfiguration, "能力清单路径不能为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, xerrors.Wrap(xerrors.CodeConfiguration, err, "读取能力清单失败")
	}

	var manifest Manifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return Manifest{}, xerrors.Wrap(xerrors.CodeConfiguration, err, "解析能力清单失败")
	}
	if manifest.Registry == "" {
		manifest.Registry = defaultRegistry
	}
	return manifest, nil
}

// Loader 从 npm 风格的制品仓库拉取能力元数据，并维护目录快照。
// 刷新是整体替换：进行中的对话轮继续使用各自开始时取到的快照。
type Loader struct {
	registry   string
	names      []string
	httpClient *http.Client
	log        *slog.Logger

	mu       sync.RWMutex
	snapshot *Catalog
}

// NewLoader 根据清单创建加载器。
func NewLoader(manifest Manifest) *Loader {
	registry := strings.TrimRight(strings.TrimSpace(manifest.Registry), "/")
	if registry == "" {
		registry = defaultRegistry
	}
	return &Loader{
		registry:   registry,
		names:      append([]string(nil), manifest.Abilities...),
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		log:        logger.Named("ability-loader"),
	}
}

// Refresh 重新拉取全部能力元数据并构建新快照。单个能力拉取失败只记
// 告警并跳过（与旧实现一致）；短名冲突则拒绝整个快照并保留旧快照。
func (l *Loader) Refresh(ctx context.Context) error {
	descriptors := make([]Descriptor, 0, len(l.names))
	for _, name := range l.names {
		desc, err := l.fetchDescriptor(ctx, name)
		if err != nil {
			l.log.Warn("跳过加载失败的能力", slog.String("ability", name), slog.Any("error", err))
			continue
		}
		descriptors = append(descriptors, *desc)
	}

	catalog, err := NewCatalog(descriptors)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.snapshot = catalog
	l.mu.Unlock()

	l.log.Info("能力目录已刷新", slog.Int("abilities", catalog.Len()))
	return nil
}

// Snapshot 实现 Source 接口，返回当前生效的快照。
func (l *Loader) Snapshot() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// packageInfo 是制品仓库返回的包描述子集。
type packageInfo struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// abilityMetadata 是能力包内生成的元数据文件子集。
type abilityMetadata struct {
	IPFSCid           string         `json:"ipfsCid"`
	SupportedPolicies []string       `json:"supportedPolicies"`
	Inputs            map[string]any `json:"inputs"`
}

// fetchDescriptor 拉取单个能力的包描述与生成元数据。
func (l *Loader) fetchDescriptor(ctx context.Context, name string) (*Descriptor, error) {
	var pkg packageInfo
	if err := l.getJSON(ctx, fmt.Sprintf("%s/%s/latest", l.registry, name), &pkg); err != nil {
		return nil, err
	}

	var meta abilityMetadata
	metadataURL := fmt.Sprintf("%s/%s/latest/dist/src/generated/vincent-ability-metadata.json", l.registry, name)
	if err := l.getJSON(ctx, metadataURL, &meta); err != nil {
		return nil, err
	}

	inputs := meta.Inputs
	if inputs == nil {
		inputs = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []any{},
		}
	}

	return &Descriptor{
		Identifier:        name,
		ShortName:         ShortNameOf(name),
		Description:       pkg.Description,
		InputSchema:       inputs,
		Version:           pkg.Version,
		IPFSCid:           meta.IPFSCid,
		SupportedPolicies: meta.SupportedPolicies,
	}, nil
}

func (l *Loader) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求制品仓库失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("制品仓库返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析制品仓库响应失败: %w", err)
	}
	return nil
}

var _ Source = (*Loader)(nil)
