package public

import "github.com/facturis-next/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：该处理器仅用于登录、凭据与开票等用户侧 API。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
