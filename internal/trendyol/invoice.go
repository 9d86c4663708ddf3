package trendyol

import (
	"bytes"
	"context"
	"strconv"
	"strings"
)

// SendInvoiceLinkInput 推送发票链接参数
type SendInvoiceLinkInput struct {
	PackageID       int64
	InvoiceLink     string
	InvoiceNumber   string
	InvoiceDateTime int64 // 毫秒时间戳，0 表示不传
}

// SendInvoiceLink 向订单包裹推送发票链接
func (c *Client) SendInvoiceLink(ctx context.Context, input SendInvoiceLinkInput) error {
	payload := map[string]interface{}{
		"shipmentPackageId": input.PackageID,
		"invoiceLink":       input.InvoiceLink,
	}
	if v := strings.TrimSpace(input.InvoiceNumber); v != "" {
		payload["invoiceNumber"] = v
	}
	if input.InvoiceDateTime > 0 {
		payload["invoiceDateTime"] = input.InvoiceDateTime
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.integrationURL("/sellers/%s/seller-invoice-links", c.cfg.SupplierID))
	if err != nil || resp.IsError() {
		return requestError(resp, err)
	}
	return nil
}

// UploadInvoiceInput 上传发票 PDF 参数
type UploadInvoiceInput struct {
	PackageID       int64
	Filename        string
	PDF             []byte
	InvoiceNumber   string
	InvoiceDateTime int64 // 毫秒时间戳，0 表示不传
}

// UploadInvoiceFile 以 multipart 形式上传发票 PDF 文件
func (c *Client) UploadInvoiceFile(ctx context.Context, input UploadInvoiceInput) error {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "invoice.pdf"
	}

	form := map[string]string{
		"shipmentPackageId": strconv.FormatInt(input.PackageID, 10),
	}
	if v := strings.TrimSpace(input.InvoiceNumber); v != "" {
		form["invoiceNumber"] = v
	}
	if input.InvoiceDateTime > 0 {
		form["invoiceDateTime"] = strconv.FormatInt(input.InvoiceDateTime, 10)
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFileReader("file", filename, bytes.NewReader(input.PDF)).
		SetFormData(form).
		Post(c.integrationURL("/sellers/%s/seller-invoice-file", c.cfg.SupplierID))
	if err != nil || resp.IsError() {
		return requestError(resp, err)
	}
	return nil
}
