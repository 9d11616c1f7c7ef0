package recon

import (
	"errors"
	"testing"
)

func TestGroupUnionsKeysFromBothSources(t *testing.T) {
	invoices := []InvoiceRecord{
		{ID: "inv-1", PurchaseOrderNo: "PO-100"},
		{ID: "inv-2", PurchaseOrderNo: "PO-200"},
	}
	packings := []PackingRecord{
		{ID: "pl-1", PurchaseOrderNo: "PO-200"},
		{ID: "pl-2", PurchaseOrderNo: "PO-300"},
	}

	groups, err := Group(invoices, packings)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups["PO-100"].Invoice == nil || groups["PO-100"].Packing != nil {
		t.Errorf("PO-100 should hold only an invoice: %+v", groups["PO-100"])
	}
	if groups["PO-200"].Invoice == nil || groups["PO-200"].Packing == nil {
		t.Errorf("PO-200 should hold both documents: %+v", groups["PO-200"])
	}
	if groups["PO-300"].Invoice != nil || groups["PO-300"].Packing == nil {
		t.Errorf("PO-300 should hold only a packing list: %+v", groups["PO-300"])
	}
}

func TestGroupNoEmptyGroups(t *testing.T) {
	groups, err := Group(nil, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups for empty inputs, got %d", len(groups))
	}
}

func TestGroupLastWriteWinsOnDuplicatePO(t *testing.T) {
	invoices := []InvoiceRecord{
		{ID: "inv-first", PurchaseOrderNo: "PO-100"},
		{ID: "inv-last", PurchaseOrderNo: "PO-100"},
	}

	groups, err := Group(invoices, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if got := groups["PO-100"].Invoice.ID; got != "inv-last" {
		t.Errorf("expected last invoice to win, got %s", got)
	}
}

func TestGroupEmptyPOIsALiteralKey(t *testing.T) {
	invoices := []InvoiceRecord{{ID: "inv-1", PurchaseOrderNo: ""}}
	packings := []PackingRecord{{ID: "pl-1", PurchaseOrderNo: ""}}

	groups, err := Group(invoices, packings)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	group, ok := groups[""]
	if !ok {
		t.Fatal("expected a group under the empty-string key")
	}
	if group.Invoice == nil || group.Packing == nil {
		t.Errorf("empty-key group should hold both records: %+v", group)
	}
}

func TestGroupRejectsMisalignedArrays(t *testing.T) {
	invoices := []InvoiceRecord{
		{ID: "inv-bad", PurchaseOrderNo: "PO-1", ItemCodes: []string{"A", "B"}, Quantities: []string{"1"}},
	}

	_, err := Group(invoices, nil)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.RecordID != "inv-bad" {
		t.Errorf("expected record id inv-bad, got %s", validationErr.RecordID)
	}
}

func TestGroupDoesNotMutateInputs(t *testing.T) {
	invoices := []InvoiceRecord{{ID: "inv-1", PurchaseOrderNo: "PO-1", VendorName: "Acme"}}

	groups, err := Group(invoices, nil)
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	groups["PO-1"].Invoice.VendorName = "changed"
	if invoices[0].VendorName != "Acme" {
		t.Error("Group should copy records, not alias the input slice")
	}
}

func TestSortedKeys(t *testing.T) {
	groups := map[string]*DocumentGroup{
		"PO-3": {}, "PO-1": {}, "PO-2": {},
	}
	keys := SortedKeys(groups)
	want := []string{"PO-1", "PO-2", "PO-3"}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("expected keys %v, got %v", want, keys)
		}
	}
}
