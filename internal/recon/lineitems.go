package recon

import "fmt"

// MatchStatus is the per-line-item reconciliation outcome.
type MatchStatus string

const (
	StatusMatch       MatchStatus = "match"
	StatusQtyMismatch MatchStatus = "qty_mismatch"
	StatusInvoiceOnly MatchStatus = "invoice_only"
	StatusPackingOnly MatchStatus = "packing_only"
	StatusNotFound    MatchStatus = "not_found"
)

// MatchLineItems classifies each flat line item against both document
// collections. For every item it locates the first invoice and the first
// packing list whose PO number matches and whose item codes contain the
// item's code, then compares the quantities recorded for that code on each
// side. One output per input, input order preserved; inputs are not mutated.
//
// Returns a ValidationError if any source record carries misaligned
// ItemCodes/Quantities arrays.
func MatchLineItems(items []LineItemRecord, invoices []InvoiceRecord, packings []PackingRecord) ([]LineItemRecord, error) {
	for i := range invoices {
		if err := invoices[i].Validate(); err != nil {
			return nil, err
		}
	}
	for i := range packings {
		if err := packings[i].Validate(); err != nil {
			return nil, err
		}
	}

	out := make([]LineItemRecord, len(items))
	for i, item := range items {
		invoice := findInvoiceForItem(invoices, item)
		packing := findPackingForItem(packings, item)

		switch {
		case invoice == nil && packing == nil:
			item.MatchStatus = StatusNotFound
			item.MismatchReason = "Item not found in both invoice and packing list"
		case invoice == nil:
			item.MatchStatus = StatusPackingOnly
			item.MismatchReason = "Item only exists in packing list"
		case packing == nil:
			item.MatchStatus = StatusInvoiceOnly
			item.MismatchReason = "Item only exists in invoice"
		default:
			invoiceQty := quantityForCode(invoice.ItemCodes, invoice.Quantities, item.ItemCode)
			packingQty := quantityForCode(packing.ItemCodes, packing.Quantities, item.ItemCode)
			if invoiceQty != packingQty {
				item.MatchStatus = StatusQtyMismatch
				item.MismatchReason = fmt.Sprintf("Quantity mismatch: Invoice %v ≠ Packing %v", invoiceQty, packingQty)
			} else {
				item.MatchStatus = StatusMatch
				item.MismatchReason = ""
			}
		}

		item.MatchPL = item.MatchStatus == StatusMatch
		out[i] = item
	}
	return out, nil
}

func findInvoiceForItem(invoices []InvoiceRecord, item LineItemRecord) *InvoiceRecord {
	for i := range invoices {
		if invoices[i].PurchaseOrderNo == item.PONumber && containsCode(invoices[i].ItemCodes, item.ItemCode) {
			return &invoices[i]
		}
	}
	return nil
}

func findPackingForItem(packings []PackingRecord, item LineItemRecord) *PackingRecord {
	for i := range packings {
		if packings[i].PurchaseOrderNo == item.PONumber && containsCode(packings[i].ItemCodes, item.ItemCode) {
			return &packings[i]
		}
	}
	return nil
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// quantityForCode reads the quantity at the code's index, or zero when the
// code is absent from the array.
func quantityForCode(codes, quantities []string, code string) float64 {
	for i, c := range codes {
		if c == code {
			return parseQuantity(quantities[i])
		}
	}
	return 0
}
