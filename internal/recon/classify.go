package recon

import "fmt"

// Exception is the document-level reconciliation outcome. Every group maps
// to exactly one label; absence of data is a label, never an error.
type Exception string

const (
	ExceptionMatch              Exception = "Match"
	ExceptionQuantityMismatch   Exception = "Quantity Mismatch"
	ExceptionPartialMatch       Exception = "Partial Match"
	ExceptionItemCodeMismatch   Exception = "Item Code Mismatch"
	ExceptionMissingItemsData   Exception = "Missing Items Data"
	ExceptionMissingInvoice     Exception = "Missing Invoice"
	ExceptionMissingPackingList Exception = "Missing Packing List"
	ExceptionNoDocuments        Exception = "No Documents"
)

// IsException reports whether the label requires human review. Only a full
// match is clean.
func (e Exception) IsException() bool {
	return e != ExceptionMatch
}

// classifyRule is one row of the decision table: the first rule whose
// predicate holds supplies the label.
type classifyRule struct {
	label   Exception
	applies func(g *DocumentGroup) bool
}

// The decision table, in priority order. Later predicates may assume the
// earlier ones did not apply (e.g. the quantity rule knows both documents
// are present and carry item data).
var classifyRules = []classifyRule{
	{ExceptionNoDocuments, func(g *DocumentGroup) bool {
		return g.Invoice == nil && g.Packing == nil
	}},
	{ExceptionMissingPackingList, func(g *DocumentGroup) bool {
		return g.Invoice != nil && g.Packing == nil
	}},
	{ExceptionMissingInvoice, func(g *DocumentGroup) bool {
		return g.Invoice == nil && g.Packing != nil
	}},
	{ExceptionMissingItemsData, func(g *DocumentGroup) bool {
		return len(g.Invoice.ItemCodes) == 0 || len(g.Packing.ItemCodes) == 0
	}},
	{ExceptionQuantityMismatch, func(g *DocumentGroup) bool {
		return itemSetsAgree(g) && anyQuantityDiffers(g)
	}},
	{ExceptionMatch, func(g *DocumentGroup) bool {
		return itemSetsAgree(g)
	}},
	{ExceptionPartialMatch, func(g *DocumentGroup) bool {
		return countMatchingItems(g) > 0
	}},
	{ExceptionItemCodeMismatch, func(g *DocumentGroup) bool {
		return true
	}},
}

// Classify evaluates the decision table for one group. Total: every group,
// however sparse, yields exactly one label.
func Classify(g *DocumentGroup) Exception {
	for _, rule := range classifyRules {
		if rule.applies(g) {
			return rule.label
		}
	}
	// Unreachable: the table ends with a catch-all.
	return ExceptionItemCodeMismatch
}

// countMatchingItems counts the invoice item codes that appear anywhere in
// the packing item codes. Set membership, not positional.
func countMatchingItems(g *DocumentGroup) int {
	packingCodes := make(map[string]struct{}, len(g.Packing.ItemCodes))
	for _, code := range g.Packing.ItemCodes {
		packingCodes[code] = struct{}{}
	}
	matching := 0
	for _, code := range g.Invoice.ItemCodes {
		if _, ok := packingCodes[code]; ok {
			matching++
		}
	}
	return matching
}

// itemSetsAgree reports whether every invoice item appears in the packing
// list and the two arrays cover each other completely.
func itemSetsAgree(g *DocumentGroup) bool {
	matching := countMatchingItems(g)
	return matching == len(g.Invoice.ItemCodes) && matching == len(g.Packing.ItemCodes)
}

// anyQuantityDiffers compares, per invoice item, the invoice quantity
// against the quantity of the first packing item bearing the same code.
func anyQuantityDiffers(g *DocumentGroup) bool {
	for i, code := range g.Invoice.ItemCodes {
		invoiceQty := parseQuantity(g.Invoice.Quantities[i])
		for j, packCode := range g.Packing.ItemCodes {
			if packCode == code {
				if invoiceQty != parseQuantity(g.Packing.Quantities[j]) {
					return true
				}
				break
			}
		}
	}
	return false
}

// TotalQuantity sums the packing quantities when a packing list is present,
// else the invoice quantities, else zero.
func (g *DocumentGroup) TotalQuantity() float64 {
	switch {
	case g.Packing != nil:
		return sumQuantities(g.Packing.Quantities)
	case g.Invoice != nil:
		return sumQuantities(g.Invoice.Quantities)
	default:
		return 0
	}
}

// DisplayVendor prefers the invoice vendor, falls back to the packing
// vendor, else empty.
func (g *DocumentGroup) DisplayVendor() string {
	switch {
	case g.Invoice != nil && g.Invoice.VendorName != "":
		return g.Invoice.VendorName
	case g.Packing != nil:
		return g.Packing.VendorName
	default:
		return ""
	}
}

// DocumentSet is the outbound display record for one classified group: raw
// values only, no currency or date formatting.
type DocumentSet struct {
	DocumentSet     string    `json:"documentSet"`
	PurchaseOrderNo string    `json:"purchaseOrderNo"`
	InvoiceNo       string    `json:"invoiceNo"`
	PackingList     string    `json:"packingList"`
	Vendor          string    `json:"vendor"`
	TotalQuantity   float64   `json:"totalQuantity"`
	TotalAmount     string    `json:"totalAmount"`
	Exception       Exception `json:"exception"`
	ReviewStatus    string    `json:"reviewStatus"`
}

// BuildDocumentSets runs the full pipeline over both collections: group,
// classify every group, and emit display records ordered by PO key so each
// run of the same inputs produces identical output.
func BuildDocumentSets(invoices []InvoiceRecord, packings []PackingRecord) ([]DocumentSet, error) {
	groups, err := Group(invoices, packings)
	if err != nil {
		return nil, err
	}

	sets := make([]DocumentSet, 0, len(groups))
	for i, key := range SortedKeys(groups) {
		group := groups[key]
		set := DocumentSet{
			DocumentSet:     fmt.Sprintf("DOC-%03d", i+1),
			PurchaseOrderNo: key,
			Vendor:          group.DisplayVendor(),
			TotalQuantity:   group.TotalQuantity(),
			Exception:       Classify(group),
			ReviewStatus:    "Pending",
		}
		if group.Invoice != nil {
			set.InvoiceNo = group.Invoice.InvoiceNo
			set.TotalAmount = group.Invoice.TotalAmount
		}
		if group.Packing != nil {
			set.PackingList = group.Packing.PackingNo
			if set.TotalAmount == "" {
				set.TotalAmount = group.Packing.TotalAmount
			}
		}
		sets = append(sets, set)
	}
	return sets, nil
}
