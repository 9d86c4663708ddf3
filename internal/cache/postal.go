package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PostalEntry 邮编查询结果缓存
type PostalEntry struct {
	City   string `json:"city"`
	County string `json:"county"`
}

func postalKey(code string) string {
	return fmt.Sprintf("postal:%s", strings.TrimSpace(code))
}

// GetPostal 获取邮编缓存
func GetPostal(ctx context.Context, code string) (*PostalEntry, bool, error) {
	if strings.TrimSpace(code) == "" {
		return nil, false, nil
	}
	var entry PostalEntry
	hit, err := GetJSON(ctx, postalKey(code), &entry)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &entry, true, nil
}

// SetPostal 写入邮编缓存
func SetPostal(ctx context.Context, code string, entry *PostalEntry, ttl time.Duration) error {
	if entry == nil || strings.TrimSpace(code) == "" {
		return nil
	}
	return SetJSON(ctx, postalKey(code), entry, ttl)
}
