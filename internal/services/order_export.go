package services

import (
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/example/storefront/internal/models"
)

var orderExportHeaders = []string{
	"Order Number", "Created At", "Status", "Customer", "Email", "Phone",
	"Shipping Address", "Items", "Subtotal", "Discount", "Total", "Currency",
	"Promo Code", "Payment Method", "Payment Proof", "Notes",
}

// WriteOrdersXLSX renders orders as a single-sheet spreadsheet.
func WriteOrdersXLSX(w io.Writer, orders []models.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range orderExportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.OrderNumber)
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(o.CustomerName)
		row.AddCell().SetValue(o.CustomerEmail)
		row.AddCell().SetValue(o.CustomerPhone)
		row.AddCell().SetValue(o.ShippingAddress)
		row.AddCell().SetValue(summarizeItems(o.Items))
		row.AddCell().SetFloat(o.Subtotal)
		row.AddCell().SetFloat(o.DiscountAmount)
		row.AddCell().SetFloat(o.TotalAmount)
		row.AddCell().SetValue(o.Currency)
		row.AddCell().SetValue(o.PromoCode)
		row.AddCell().SetValue(o.PaymentMethod)
		row.AddCell().SetValue(o.PaymentProof)
		row.AddCell().SetValue(o.Notes)
	}

	return file.Write(w)
}

func summarizeItems(items []models.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		label := it.ProductName
		if it.IsPromoFree {
			label += " (free)"
		}
		parts = append(parts, label+" x"+strconv.Itoa(it.Quantity))
	}
	return strings.Join(parts, "; ")
}
