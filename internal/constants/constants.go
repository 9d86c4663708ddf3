package constants

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 用户状态
const (
	UserStatusActive   = 1
	UserStatusDisabled = 0
)

// 发票记录状态
const (
	InvoiceStatusGenerated = "generated"
	InvoiceStatusUploaded  = "uploaded"
	InvoiceStatusFailed    = "failed"
	InvoiceStatusReversed  = "reversed"
)

// Trendyol 订单状态
const (
	OrderStatusCreated     = "Created"
	OrderStatusPicking     = "Picking"
	OrderStatusInvoiced    = "Invoiced"
	OrderStatusShipped     = "Shipped"
	OrderStatusDelivered   = "Delivered"
	OrderStatusUnDelivered = "UnDelivered"
	OrderStatusCancelled   = "Cancelled"
	OrderStatusReturned    = "Returned"
)

// SmartBill 单据类型
const (
	DocumentTypeInvoice  = "f"
	DocumentTypeProforma = "p"
	DocumentTypeReceipt  = "c"
)

// 发票默认值
const (
	DefaultCurrency    = "RON"
	DefaultCountry     = "RO"
	DefaultVATRate     = 19
	MeasuringUnitPiece = "buc"
	OSSSeriesSuffix    = "-OSS"
	FallbackClientName = "Client Trendyol"
	PlaceholderVATCode = "-"
)

// 批量处理上限
const (
	BulkDefaultLimit  = 10
	BulkMaxErrorCount = 10
	FetchPageSize     = 200
)

// 验证码场景
const (
	CaptchaSceneLogin    = "login"
	CaptchaSceneRegister = "register"
)

// 验证码提供方
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)
