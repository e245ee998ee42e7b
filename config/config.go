package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fofahack/log"
	"fofahack/pkg/constants"
	"fofahack/pkg/errors"
)

// Config 应用配置结构
type Config struct {
	Search SearchConfig `json:"search"`
	Proxy  ProxyConfig  `json:"proxy"`
	Client ClientConfig `json:"client"`
	Output OutputConfig `json:"output"`
}

// SearchConfig 搜索配置
type SearchConfig struct {
	EndCount  int           `json:"end_count"`  // 目标结果数量
	MaxPages  int           `json:"max_pages"`  // 最大翻页数
	TimeSleep time.Duration `json:"time_sleep"` // 请求间隔
	Debug     bool          `json:"debug"`
}

// ProxyConfig 代理配置
type ProxyConfig struct {
	Enabled     bool     `json:"enabled"`      // 是否启用自动代理收集
	AllowDirect bool     `json:"allow_direct"` // 无代理时是否允许直连
	Manual      []string `json:"manual"`       // 手动指定的代理列表
	Sources     []string `json:"sources"`      // 代理源列表
}

// ClientConfig 客户端配置
type ClientConfig struct {
	Timeout time.Duration `json:"timeout"`
	Retry   int           `json:"retry"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

// NewConfig 创建新的配置实例
func NewConfig() (*Config, error) {
	// 加载环境变量文件
	if err := godotenv.Load(); err != nil {
		log.Debug("Failed to load .env file: %v", err)
	}

	config := &Config{}

	// 加载各种配置
	configLoaders := []struct {
		name   string
		loader func() error
	}{
		{"search", config.loadSearchConfig},
		{"proxy", config.loadProxyConfig},
		{"client", config.loadClientConfig},
		{"output", config.loadOutputConfig},
	}

	for _, cl := range configLoaders {
		if err := cl.loader(); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", cl.name, err)
		}
	}

	// 验证配置
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigValidation, err)
	}

	return config, nil
}

// loadSearchConfig 加载搜索配置
func (c *Config) loadSearchConfig() error {
	c.Search.EndCount = getEnvAsInt("END_COUNT", constants.DefaultEndCount)
	c.Search.MaxPages = getEnvAsInt("MAX_PAGES", constants.DefaultMaxPages)
	c.Search.TimeSleep = getEnvAsDuration("TIME_SLEEP", constants.DefaultTimeSleep)
	c.Search.Debug = getEnvAsBool("DEBUG", false)
	return nil
}

// loadProxyConfig 加载代理配置
func (c *Config) loadProxyConfig() error {
	c.Proxy.Enabled = getEnvAsBool("USE_PROXY", true)
	c.Proxy.AllowDirect = getEnvAsBool("ALLOW_DIRECT", true)
	c.Proxy.Sources = constants.ProxySources

	// 手动指定代理，逗号分隔
	manualEnv := os.Getenv("PROXIES")
	if manualEnv != "" {
		var cleaned []string
		for _, p := range strings.Split(manualEnv, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		c.Proxy.Manual = cleaned
	}

	return nil
}

// loadClientConfig 加载客户端配置
func (c *Config) loadClientConfig() error {
	c.Client.Timeout = getEnvAsDuration("CLIENT_TIMEOUT", constants.DefaultClientTimeout)

	retry := getEnvAsInt("RETRY", constants.DefaultRetryCount)
	if retry < 1 {
		retry = 1
	}
	c.Client.Retry = retry

	return nil
}

// loadOutputConfig 加载输出配置
func (c *Config) loadOutputConfig() error {
	c.Output.Format = strings.ToLower(getEnvWithDefault("OUTPUT_FORMAT", constants.FormatJSON))
	c.Output.Name = getEnvWithDefault("OUTPUT_NAME", constants.DefaultOutputName)
	return nil
}

// validate 验证配置
func (c *Config) validate() error {
	if c.Search.EndCount < 1 {
		return fmt.Errorf("end count must be at least 1, got: %d", c.Search.EndCount)
	}

	if c.Search.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1, got: %d", c.Search.MaxPages)
	}

	switch c.Output.Format {
	case constants.FormatJSON, constants.FormatCSV, constants.FormatTXT:
	default:
		return fmt.Errorf("%w: %s", errors.ErrInvalidFormat, c.Output.Format)
	}

	if c.Client.Retry < 1 {
		return fmt.Errorf("retry count must be at least 1")
	}

	return nil
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 获取环境变量并转换为整数
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsBool 获取环境变量并转换为布尔值
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn("Invalid boolean value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsDuration 获取环境变量并转换为时间（秒）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	seconds, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || seconds < 0 {
		log.Warn("Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return time.Duration(seconds * float64(time.Second))
}

// 兼容性方法
func (c *Config) EndCount() int {
	return c.Search.EndCount
}

func (c *Config) MaxPages() int {
	return c.Search.MaxPages
}

func (c *Config) TimeSleep() time.Duration {
	return c.Search.TimeSleep
}

func (c *Config) UseProxy() bool {
	return c.Proxy.Enabled
}

func (c *Config) AllowDirect() bool {
	return c.Proxy.AllowDirect
}

func (c *Config) Retry() int {
	return c.Client.Retry
}
