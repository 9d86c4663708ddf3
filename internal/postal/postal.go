package postal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

// ErrNotFound 邮编不存在或页面无法解析
// 上游站点的任何失败（网络、状态码、结构变化）统一归为未找到
var ErrNotFound = errors.New("postal: code not found")

const (
	defaultBaseURL = "https://www.coduripostale.net"
	defaultTimeout = 10 * time.Second
	browserUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Address 邮编解析出的地址
type Address struct {
	City   string `json:"city"`
	County string `json:"county"`
}

// Client 邮编查询客户端（抓取公开目录站点）
type Client struct {
	rest *resty.Client
}

// New 创建客户端
func New(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rest := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUA)

	return &Client{rest: rest}
}

// Lookup 查询邮编对应的城市和县
func (c *Client) Lookup(ctx context.Context, code string) (*Address, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, ErrNotFound
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/%s", trimmed))
	if err != nil || resp.IsError() {
		return nil, ErrNotFound
	}

	addr, ok := parseAddress(resp.String())
	if !ok {
		return nil, ErrNotFound
	}
	return addr, nil
}

// parseAddress 取页面第一张表格的第二行：第 3 列为城市，第 4 列为县
func parseAddress(page string) (*Address, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, false
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, false
	}

	rows := findAll(table, "tr")
	if len(rows) < 2 {
		return nil, false
	}

	cells := findAll(rows[1], "td")
	if len(cells) < 4 {
		return nil, false
	}

	addr := &Address{
		City:   strings.TrimSpace(nodeText(cells[2])),
		County: strings.TrimSpace(nodeText(cells[3])),
	}
	if addr.City == "" && addr.County == "" {
		return nil, false
	}
	return addr, true
}

func findFirst(node *html.Node, tag string) *html.Node {
	if node.Type == html.ElementNode && node.Data == tag {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func findAll(node *html.Node, tag string) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			result = append(result, n)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child)
	}
	return result
}

func nodeText(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return sb.String()
}
