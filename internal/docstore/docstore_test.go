package docstore

import "testing"

func TestInferFolder(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"INV-2024-001.pdf", "invoice"},
		{"commercial_invoice_march.pdf", "invoice"},
		{"packing_list_1001.pdf", "packing_list"},
		{"PL-7788.pdf", "packing_list"},
		{"BOL-556.pdf", "bill_of_lading"},
		{"bill_of_lading_99.pdf", "bill_of_lading"},
		{"contract.pdf", "other"},
		// "inv" wins when a name could be read both ways
		{"inv_packing_combined.pdf", "invoice"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := InferFolder(tt.filename); got != tt.want {
				t.Errorf("InferFolder(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
