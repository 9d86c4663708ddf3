package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturis-next/internal/trendyol"
)

// OrderService Trendyol 订单查询（按用户凭据构造客户端）
type OrderService struct {
	credentials *CredentialService
}

// NewOrderService 创建订单服务
func NewOrderService(credentials *CredentialService) *OrderService {
	return &OrderService{credentials: credentials}
}

func (s *OrderService) clientFor(userID uint) (*trendyol.Client, error) {
	cfg, err := s.credentials.TrendyolConfig(userID)
	if err != nil {
		return nil, err
	}
	return trendyol.New(cfg)
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(ctx context.Context, userID uint, query trendyol.OrderQuery) (*trendyol.OrderPage, error) {
	client, err := s.clientFor(userID)
	if err != nil {
		return nil, err
	}
	return client.FetchOrders(ctx, query)
}

// GetOrder 按订单号查询单个订单，未命中返回 ErrOrderNotFound
func (s *OrderService) GetOrder(ctx context.Context, userID uint, orderNumber string) (*trendyol.Order, error) {
	client, err := s.clientFor(userID)
	if err != nil {
		return nil, err
	}
	return fetchOrderByNumber(ctx, client, orderNumber)
}

// fetchOrderByNumber 通过订单号过滤接口定位订单
func fetchOrderByNumber(ctx context.Context, client *trendyol.Client, orderNumber string) (*trendyol.Order, error) {
	if orderNumber == "" {
		return nil, ErrOrderNotFound
	}
	page, err := client.FetchOrders(ctx, trendyol.OrderQuery{OrderNumber: orderNumber, Size: 50})
	if err != nil {
		if errors.Is(err, trendyol.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return nil, err
	}
	for i := range page.Content {
		if page.Content[i].OrderNumber == orderNumber {
			return &page.Content[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
}

// ListProducts 分页查询商品
func (s *OrderService) ListProducts(ctx context.Context, userID uint, query trendyol.ProductQuery) (*trendyol.ProductPage, error) {
	client, err := s.clientFor(userID)
	if err != nil {
		return nil, err
	}
	return client.FetchProducts(ctx, query)
}

// ListPackages 分页查询发货包裹
func (s *OrderService) ListPackages(ctx context.Context, userID uint, query trendyol.PackageQuery) (*trendyol.OrderPage, error) {
	client, err := s.clientFor(userID)
	if err != nil {
		return nil, err
	}
	return client.FetchShipmentPackages(ctx, query)
}

// DownloadLabel 下载包裹面单 PDF
func (s *OrderService) DownloadLabel(ctx context.Context, userID uint, packageID int64) ([]byte, error) {
	client, err := s.clientFor(userID)
	if err != nil {
		return nil, err
	}
	data, err := client.DownloadCargoLabel(ctx, packageID)
	if err != nil {
		if errors.Is(err, trendyol.ErrNotFound) {
			return nil, fmt.Errorf("%w: label for package %d", ErrNotFound, packageID)
		}
		return nil, err
	}
	return data, nil
}
