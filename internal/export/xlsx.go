package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// exportXLSX builds a workbook with one sheet of document sets and, when
// requested, a second sheet of line items.
func exportXLSX(title string, report Report, includeLineItems bool) (*Result, error) {
	f := excelize.NewFile()

	const setsSheet = "Document Sets"
	if index, _ := f.GetSheetIndex(setsSheet); index == -1 {
		if _, err := f.NewSheet(setsSheet); err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
	}
	activeIndex, _ := f.GetSheetIndex(setsSheet)
	f.SetActiveSheet(activeIndex)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	setHeaders := []string{
		"Document Set",
		"PO Number",
		"Invoice No",
		"Packing List",
		"Vendor",
		"Total Quantity",
		"Total Amount",
		"Status",
		"Review Status",
	}
	for i, h := range setHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(setsSheet, cell, h)
	}

	row := 2
	for _, set := range report.Sets {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(setsSheet, cell, v)
		}
		write(1, set.DocumentSet)
		write(2, set.PurchaseOrderNo)
		write(3, set.InvoiceNo)
		write(4, set.PackingList)
		write(5, set.Vendor)
		write(6, set.TotalQuantity)
		write(7, set.TotalAmount)
		write(8, string(set.Exception))
		write(9, set.ReviewStatus)
		row++
	}

	_ = f.SetColWidth(setsSheet, "A", "A", 14)
	_ = f.SetColWidth(setsSheet, "B", "E", 20)
	_ = f.SetColWidth(setsSheet, "H", "H", 22)

	if includeLineItems {
		const itemsSheet = "Line Items"
		if _, err := f.NewSheet(itemsSheet); err != nil {
			return nil, fmt.Errorf("create line items sheet: %w", err)
		}

		itemHeaders := []string{
			"PO Number",
			"Item Code",
			"Quantity",
			"Unit Price",
			"Line Amount",
			"Invoice No",
			"Vendor",
			"Status",
			"Notes",
		}
		for i, h := range itemHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			_ = f.SetCellValue(itemsSheet, cell, h)
		}

		row = 2
		for _, item := range report.LineItems {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(itemsSheet, cell, v)
			}
			write(1, item.PONumber)
			write(2, item.ItemCode)
			write(3, item.Quantity)
			write(4, item.UnitPrice)
			write(5, item.LineAmount)
			write(6, item.InvoiceNo)
			write(7, item.VendorName)
			write(8, string(item.MatchStatus))
			write(9, item.MismatchReason)
			row++
		}

		_ = f.SetColWidth(itemsSheet, "A", "B", 16)
		_ = f.SetColWidth(itemsSheet, "I", "I", 40)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return &Result{
		Data:     buf.Bytes(),
		Filename: sanitizeFilename(title) + ".xlsx",
		MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}, nil
}
