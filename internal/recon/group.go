package recon

import "sort"

// Group partitions both collections by purchase-order number. Every PO key
// seen in either input gets a DocumentGroup; a missing or empty PO number is
// grouped under the literal empty-string key, not rejected.
//
// Duplicate PO numbers within one collection follow last-write-wins in input
// order: the later record replaces the earlier one in the group. Inherited
// behavior, kept deliberately (see DESIGN.md).
//
// Returns a ValidationError if any record's ItemCodes/Quantities arrays are
// misaligned; the inputs are otherwise never mutated.
func Group(invoices []InvoiceRecord, packings []PackingRecord) (map[string]*DocumentGroup, error) {
	groups := make(map[string]*DocumentGroup, len(invoices)+len(packings))

	for i := range invoices {
		inv := invoices[i]
		if err := inv.Validate(); err != nil {
			return nil, err
		}
		group := ensureGroup(groups, inv.PurchaseOrderNo)
		group.Invoice = &inv
	}

	for i := range packings {
		pack := packings[i]
		if err := pack.Validate(); err != nil {
			return nil, err
		}
		group := ensureGroup(groups, pack.PurchaseOrderNo)
		group.Packing = &pack
	}

	return groups, nil
}

func ensureGroup(groups map[string]*DocumentGroup, key string) *DocumentGroup {
	if group, ok := groups[key]; ok {
		return group
	}
	group := &DocumentGroup{PurchaseOrderKey: key}
	groups[key] = group
	return group
}

// SortedKeys returns the group keys in ascending order for deterministic
// iteration over a grouping result.
func SortedKeys(groups map[string]*DocumentGroup) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
