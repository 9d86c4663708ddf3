package trendyol

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrConfigInvalid 凭据或配置不完整
	ErrConfigInvalid = errors.New("trendyol: config invalid")
	// ErrRequestFailed 请求发送失败或返回错误状态
	ErrRequestFailed = errors.New("trendyol: request failed")
	// ErrResponseInvalid 响应内容无法解析
	ErrResponseInvalid = errors.New("trendyol: response invalid")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("trendyol: resource not found")
)

const (
	defaultBaseURL            = "https://api.trendyol.com/sapigw"
	defaultIntegrationBaseURL = "https://apigw.trendyol.com/integration"
	defaultTimeout            = 30 * time.Second
	userAgent                 = "Trendyol-Order-Manager"
)

// Config Trendyol 开放平台接入配置
type Config struct {
	SupplierID         string
	APIKey             string
	APISecret          string
	BaseURL            string
	IntegrationBaseURL string
	Timeout            time.Duration
}

func (c *Config) normalize() {
	c.SupplierID = strings.TrimSpace(c.SupplierID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.APISecret = strings.TrimSpace(c.APISecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.IntegrationBaseURL = strings.TrimRight(strings.TrimSpace(c.IntegrationBaseURL), "/")
	if c.IntegrationBaseURL == "" {
		c.IntegrationBaseURL = defaultIntegrationBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig 校验凭据是否完整
func ValidateConfig(cfg Config) error {
	cfg.normalize()
	if cfg.SupplierID == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return ErrConfigInvalid
	}
	return nil
}

// Client Trendyol 接口客户端
type Client struct {
	cfg  Config
	rest *resty.Client
}

// New 创建客户端
func New(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	rest := resty.New().
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.APIKey, cfg.APISecret).
		SetHeader("User-Agent", userAgent)

	return &Client{cfg: cfg, rest: rest}, nil
}

func (c *Client) supplierURL(format string, args ...interface{}) string {
	return c.cfg.BaseURL + fmt.Sprintf(format, args...)
}

func (c *Client) integrationURL(format string, args ...interface{}) string {
	return c.cfg.IntegrationBaseURL + fmt.Sprintf(format, args...)
}

func requestError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() == 404 {
		return fmt.Errorf("%w: status=404", ErrNotFound)
	}
	return fmt.Errorf("%w: status=%d body=%s", ErrRequestFailed, resp.StatusCode(), truncateBody(resp.String()))
}

func truncateBody(body string) string {
	const maxLen = 200
	if len(body) > maxLen {
		return body[:maxLen]
	}
	return body
}

var (
	bucharestOnce sync.Once
	bucharestLoc  *time.Location
)

func bucharest() *time.Location {
	bucharestOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Bucharest")
		if err != nil {
			loc = time.FixedZone("EET", 2*3600)
		}
		bucharestLoc = loc
	})
	return bucharestLoc
}

// formatDate 将日期串转换为毫秒时间戳串（无时区时按罗马尼亚时间处理）
func formatDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, trimmed, bucharest())
		if err == nil {
			return fmt.Sprintf("%d", parsed.UnixMilli())
		}
	}
	return trimmed
}
