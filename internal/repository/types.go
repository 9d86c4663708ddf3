package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// InvoiceListFilter 查询开票记录的过滤条件
type InvoiceListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     string
	Series      string
	Number      string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
