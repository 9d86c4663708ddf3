package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/facturis-next/internal/constants"
	"github.com/facturis-next/internal/postal"
	"github.com/facturis-next/internal/smartbill"
	"github.com/facturis-next/internal/trendyol"
)

// BuildInvoiceDraft 根据订单构造 SmartBill 开票请求（纯函数，不触网）
// 非 RON 订单走 OSS 系列（系列名追加 -OSS 且启用 intra CIF）；
// hint 为邮编反查结果：county 始终覆盖，city 仅在订单缺失时补齐
func BuildInvoiceDraft(order *trendyol.Order, tenant *SmartBillTenant, seriesName string, hint *postal.Address, now time.Time) smartbill.InvoiceDraft {
	currency := order.CurrencyCode
	if currency == "" {
		currency = constants.DefaultCurrency
	}
	isOSS := currency != constants.DefaultCurrency

	seriesName = strings.TrimSuffix(strings.TrimSpace(seriesName), constants.OSSSeriesSuffix)
	if isOSS {
		seriesName += constants.OSSSeriesSuffix
	}

	draft := smartbill.InvoiceDraft{
		CompanyVATCode: tenant.Config.CIF,
		UseIntraCIF:    isOSS,
		SeriesName:     seriesName,
		Client:         buildInvoiceClient(order, hint),
		IssueDate:      now.Format("2006-01-02"),
		Currency:       currency,
		UseStock:       tenant.Gestiune != "",
		OrderNumber:    order.OrderNumber,
	}

	description := fmt.Sprintf("Numar comanda Trendyol:%s", order.OrderNumber)
	for _, line := range order.Lines {
		draft.Products = append(draft.Products, buildInvoiceProduct(line, description, currency, tenant.Gestiune))
	}
	return draft
}

func buildInvoiceClient(order *trendyol.Order, hint *postal.Address) smartbill.InvoiceClient {
	name := strings.TrimSpace(order.CustomerFirstName + " " + order.CustomerLastName)
	if name == "" {
		name = constants.FallbackClientName
	}

	// 地址优先取发票地址，缺失时退回发货地址
	addr := order.InvoiceAddress
	if addr.Address1 == "" && addr.City == "" {
		addr = order.ShipmentAddress
	}

	city := addr.City
	county := addr.District
	if hint != nil {
		county = hint.County
		if city == "" {
			city = hint.City
		}
	}

	country := addr.CountryCode
	if country == "" {
		country = constants.DefaultCountry
	}

	return smartbill.InvoiceClient{
		Name:       name,
		VATCode:    constants.PlaceholderVATCode,
		IsTaxPayer: false,
		Address:    addr.Address1,
		City:       city,
		County:     county,
		Country:    country,
		Email:      order.CustomerEmail,
		SaveToDb:   true,
	}
}

func buildInvoiceProduct(line trendyol.OrderLine, description, currency, gestiune string) smartbill.InvoiceProduct {
	code := line.MerchantSKU
	// 接口偶发返回字面量 merchantSku 占位串，退回行内 sku
	if code == "" || code == "merchantSku" {
		code = line.SKU
	}

	vatRate := line.VATRate
	if vatRate <= 0 {
		vatRate = constants.DefaultVATRate
	}

	return smartbill.InvoiceProduct{
		Code:               code,
		Name:               line.ProductName,
		ProductDescription: description,
		MeasuringUnitName:  constants.MeasuringUnitPiece,
		Currency:           currency,
		Quantity:           line.Quantity,
		Price:              line.Price,
		IsTaxIncluded:      true,
		TaxPercentage:      vatRate,
		SaveToDb:           false,
		WarehouseName:      gestiune,
	}
}
