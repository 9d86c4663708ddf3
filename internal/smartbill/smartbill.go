package smartbill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrConfigInvalid 凭据或配置不完整
	ErrConfigInvalid = errors.New("smartbill: config invalid")
	// ErrRequestFailed 请求发送失败或返回错误状态
	ErrRequestFailed = errors.New("smartbill: request failed")
	// ErrInvoiceNotFound 发票不存在
	ErrInvoiceNotFound = errors.New("smartbill: invoice not found")
)

const (
	defaultBaseURL = "https://ws.smartbill.ro/SBORO/api"
	defaultTimeout = 30 * time.Second
)

// Config SmartBill 接入配置
type Config struct {
	Email   string
	Token   string
	CIF     string // 公司税号，所有请求都要携带
	BaseURL string
	Timeout time.Duration
}

func (c *Config) normalize() {
	c.Email = strings.TrimSpace(c.Email)
	c.Token = strings.TrimSpace(c.Token)
	c.CIF = strings.TrimSpace(c.CIF)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig 校验凭据是否完整
func ValidateConfig(cfg Config) error {
	cfg.normalize()
	if cfg.Email == "" || cfg.Token == "" || cfg.CIF == "" {
		return ErrConfigInvalid
	}
	return nil
}

// Client SmartBill 接口客户端
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
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.Email, cfg.Token).
		SetHeader("Accept", "application/json")

	return &Client{cfg: cfg, rest: rest}, nil
}

func requestError(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode() == 404 {
		return fmt.Errorf("%w: status=404", ErrInvoiceNotFound)
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

// Series 单据系列
type Series struct {
	Name       string `json:"name"`
	NextNumber int    `json:"nextNumber"`
}

// FetchSeries 查询单据系列（docType 默认发票）
func (c *Client) FetchSeries(ctx context.Context, docType string) ([]Series, error) {
	if strings.TrimSpace(docType) == "" {
		docType = "f"
	}

	var out struct {
		List []Series `json:"list"`
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"cif":  c.cfg.CIF,
			"type": docType,
		}).
		SetResult(&out).
		Get("/series")
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return out.List, nil
}

// InvoiceClient 发票抬头
type InvoiceClient struct {
	Name       string `json:"name"`
	VATCode    string `json:"vatCode"`
	IsTaxPayer bool   `json:"isTaxPayer"`
	Address    string `json:"address"`
	City       string `json:"city"`
	County     string `json:"county"`
	Country    string `json:"country"`
	Email      string `json:"email,omitempty"`
	SaveToDb   bool   `json:"saveToDb"`
}

// InvoiceProduct 发票商品行
type InvoiceProduct struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	ProductDescription string  `json:"productDescription,omitempty"`
	MeasuringUnitName  string  `json:"measuringUnitName"`
	Currency           string  `json:"currency"`
	Quantity           int     `json:"quantity"`
	Price              float64 `json:"price"`
	IsTaxIncluded      bool    `json:"isTaxIncluded"`
	TaxPercentage      float64 `json:"taxPercentage"`
	SaveToDb           bool    `json:"saveToDb"`
	WarehouseName      string  `json:"warehouseName,omitempty"`
}

// InvoiceDraft 开票请求体
type InvoiceDraft struct {
	CompanyVATCode string           `json:"companyVatCode"`
	UseIntraCIF    bool             `json:"useIntraCif"`
	SeriesName     string           `json:"seriesName"`
	Client         InvoiceClient    `json:"client"`
	IssueDate      string           `json:"issueDate"` // YYYY-MM-DD
	Currency       string           `json:"currency"`
	UseStock       bool             `json:"useStock"`
	Products       []InvoiceProduct `json:"products"`
	OrderNumber    string           `json:"orderNumber,omitempty"`
}

// InvoiceResult 开票结果
type InvoiceResult struct {
	Series string `json:"series"`
	Number string `json:"number"`
}

// CreateInvoice 创建发票
func (c *Client) CreateInvoice(ctx context.Context, draft *InvoiceDraft) (*InvoiceResult, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: nil draft", ErrRequestFailed)
	}

	var result InvoiceResult
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(draft).
		SetResult(&result).
		Post("/invoice")
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return &result, nil
}

// FetchInvoicePDF 下载发票 PDF
func (c *Client) FetchInvoicePDF(ctx context.Context, series, number string) ([]byte, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/octet-stream").
		SetQueryParams(map[string]string{
			"cif":        c.cfg.CIF,
			"seriesname": series,
			"number":     number,
		}).
		Get("/invoice/pdf")
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return resp.Body(), nil
}

// ReverseInvoice 开红冲发票（issueDate 为空时取当天）
func (c *Client) ReverseInvoice(ctx context.Context, series, number, issueDate string) error {
	if strings.TrimSpace(issueDate) == "" {
		issueDate = time.Now().Format("2006-01-02")
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"companyVatCode": c.cfg.CIF,
			"seriesName":     series,
			"number":         number,
			"issueDate":      issueDate,
		}).
		Post("/invoice/reverse")
	if err != nil || resp.IsError() {
		return requestError(resp, err)
	}
	return nil
}

// ListInvoicesQuery 发票列表查询条件
type ListInvoicesQuery struct {
	Series    string
	Number    string
	IssueDate string // YYYY-MM-DD
}

// ListInvoices 查询已开发票列表（原样返回 SmartBill 响应体）
func (c *Client) ListInvoices(ctx context.Context, query ListInvoicesQuery) ([]byte, error) {
	params := map[string]string{"cif": c.cfg.CIF}
	if v := strings.TrimSpace(query.Series); v != "" {
		params["seriesName"] = v
	}
	if v := strings.TrimSpace(query.Number); v != "" {
		params["number"] = v
	}
	if v := strings.TrimSpace(query.IssueDate); v != "" {
		params["issueDate"] = v
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/invoice/list")
	if err != nil || resp.IsError() {
		return nil, requestError(resp, err)
	}
	return resp.Body(), nil
}
