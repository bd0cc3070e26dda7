package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	DefaultHost       = "https://clob.polymarket.com"
	DefaultChainID    = 137
	DefaultServerAddr = ":8080"
)

// CredentialPolicy 构造客户端前要求哪些凭证
type CredentialPolicy string

const (
	// PolicyFunder 要求私钥 + funder（代理钱包地址），L2 凭证缺失时自动推导
	PolicyFunder CredentialPolicy = "funder"
	// PolicyAPIKey 要求私钥 + 完整的 API key/secret/passphrase
	PolicyAPIKey CredentialPolicy = "api_key"
)

// Settings 交易凭证和连接参数，进程生命周期内不可变
type Settings struct {
	PrivateKey    string
	Funder        string
	SignatureType int // 0=EOA, 1=POLY_PROXY, 2=GNOSIS_SAFE

	APIKey        string
	APISecret     string
	APIPassphrase string

	Host             string
	ChainID          int
	CredentialPolicy CredentialPolicy
	DryRun           bool // 纸交易模式，只签名不提交
}

// SecretStoreConfig 派生 API 凭证的本地加密存储
type SecretStoreConfig struct {
	Path string // 为空则不持久化
	Key  string // 可选加密密钥（16/24/32 字节，支持 hex/base64）
}

// Config 应用配置
type Config struct {
	Polymarket  Settings
	LogLevel    string // 日志级别
	LogFormat   string // text 或 json
	LogFile     string // 日志文件路径（可选）
	SecretStore SecretStoreConfig
	ServerAddr  string // HTTP 服务监听地址
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	Polymarket struct {
		PrivateKey       string `yaml:"private_key" json:"private_key"`
		Funder           string `yaml:"funder" json:"funder"`
		SignatureType    *int   `yaml:"signature_type" json:"signature_type"`
		APIKey           string `yaml:"api_key" json:"api_key"`
		APISecret        string `yaml:"api_secret" json:"api_secret"`
		APIPassphrase    string `yaml:"api_passphrase" json:"api_passphrase"`
		Host             string `yaml:"host" json:"host"`
		ChainID          int    `yaml:"chain_id" json:"chain_id"`
		CredentialPolicy string `yaml:"credential_policy" json:"credential_policy"`
	} `yaml:"polymarket" json:"polymarket"`
	DryRun      *bool  `yaml:"dry_run" json:"dry_run"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	LogFormat   string `yaml:"log_format" json:"log_format"`
	LogFile     string `yaml:"log_file" json:"log_file"`
	SecretStore struct {
		Path string `yaml:"path" json:"path"`
		Key  string `yaml:"key" json:"key"`
	} `yaml:"secret_store" json:"secret_store"`
	Server struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`
}

// Load 加载配置（优先级：环境变量 > 配置文件 > 默认值）
// filePath 为空时只读取环境变量
func Load(filePath string) (*Config, error) {
	cf := &ConfigFile{}
	if filePath != "" {
		var err error
		cf, err = loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
	}
	p := cf.Polymarket

	sigType := 0
	if p.SignatureType != nil {
		sigType = *p.SignatureType
	}
	dryRun := false
	if cf.DryRun != nil {
		dryRun = *cf.DryRun
	}

	cfg := &Config{
		Polymarket: Settings{
			PrivateKey:       getEnv("POLYMARKET_PRIVATE_KEY", p.PrivateKey),
			Funder:           getEnv("POLYMARKET_FUNDER", p.Funder),
			SignatureType:    parseIntEnv("POLYMARKET_SIGNATURE_TYPE", sigType),
			APIKey:           getEnv("POLYMARKET_API_KEY", p.APIKey),
			APISecret:        getEnv("POLYMARKET_API_SECRET", p.APISecret),
			APIPassphrase:    getEnv("POLYMARKET_API_PASSPHRASE", p.APIPassphrase),
			Host:             getEnv("POLYMARKET_HOST", firstNonEmpty(p.Host, DefaultHost)),
			ChainID:          parseIntEnv("POLYMARKET_CHAIN_ID", firstPositive(p.ChainID, DefaultChainID)),
			CredentialPolicy: CredentialPolicy(strings.ToLower(getEnv("POLYMARKET_CREDENTIAL_POLICY", firstNonEmpty(p.CredentialPolicy, string(PolicyFunder))))),
			DryRun:           parseBoolEnv("DRY_RUN", dryRun),
		},
		LogLevel:  getEnv("LOG_LEVEL", firstNonEmpty(cf.LogLevel, "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", firstNonEmpty(cf.LogFormat, "text"))),
		LogFile:   getEnv("LOG_FILE", cf.LogFile),
		SecretStore: SecretStoreConfig{
			Path: getEnv("SECRET_STORE_PATH", cf.SecretStore.Path),
			Key:  getEnv("SECRET_STORE_KEY", cf.SecretStore.Key),
		},
		ServerAddr: getEnv("SERVER_ADDR", firstNonEmpty(cf.Server.Addr, DefaultServerAddr)),
	}

	return cfg, nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

// Validate 只检查取值范围；凭证是否齐全由交易适配器在构造客户端时检查
func (c *Config) Validate() error {
	if err := c.Polymarket.Validate(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT 必须是 text 或 json，当前: %s", c.LogFormat)
	}
	if c.SecretStore.Key != "" && c.SecretStore.Path == "" {
		return fmt.Errorf("SECRET_STORE_KEY 已配置但 SECRET_STORE_PATH 为空")
	}
	return nil
}

// Validate 检查取值范围
func (s *Settings) Validate() error {
	switch s.CredentialPolicy {
	case PolicyFunder, PolicyAPIKey, "":
	default:
		return fmt.Errorf("POLYMARKET_CREDENTIAL_POLICY 必须是 %s 或 %s，当前: %s", PolicyFunder, PolicyAPIKey, s.CredentialPolicy)
	}
	if s.SignatureType < 0 || s.SignatureType > 2 {
		return fmt.Errorf("POLYMARKET_SIGNATURE_TYPE 必须在 0 到 2 之间，当前: %d", s.SignatureType)
	}
	if s.ChainID != 0 && s.ChainID != 137 && s.ChainID != 80002 {
		return fmt.Errorf("不支持的 POLYMARKET_CHAIN_ID: %d", s.ChainID)
	}
	return nil
}

// Policy 未设置时默认 funder
func (s *Settings) Policy() CredentialPolicy {
	if s.CredentialPolicy == "" {
		return PolicyFunder
	}
	return s.CredentialPolicy
}

// getEnv 获取环境变量，未设置时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv 解析整数环境变量
func parseIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// parseBoolEnv 解析布尔环境变量
func parseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
