package service

import (
	"fmt"

	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

var orderExportHeaders = []string{
	"Order ID", "User ID", "Status", "Subtotal", "Discount", "Refunded",
	"Total", "Coupon", "Items", "Created At",
}

// ExportOrdersToExcel renders the admin order report. One row per order,
// items collapsed into a single cell.
func ExportOrdersToExcel(orders []model.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Orders"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range orderExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, order := range orders {
		values := []interface{}{
			order.ID,
			order.UserID,
			string(order.Status),
			order.Subtotal,
			order.DiscountAmount,
			order.RefundedAmount,
			order.TotalAmount,
			order.CouponCode,
			summarizeItems(order.Items),
			order.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func summarizeItems(items []model.OrderItem) string {
	var out string
	for i, item := range items {
		if i > 0 {
			out += "; "
		}
		label := item.ProductName
		if item.VariantLabel != "" {
			label += " (" + item.VariantLabel + ")"
		}
		out += fmt.Sprintf("%s x%d", label, item.Quantity)
		if item.Status == model.OrderItemStatusCanceled {
			out += " [canceled]"
		}
	}
	return out
}
