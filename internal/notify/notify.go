// Package notify derives dashboard notifications from reconciliation output
// and recent document activity, and persists them in Redis so repeated polls
// deduplicate.
package notify

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"docflow/api/internal/recon"
)

const (
	TypeSuccess   = "success"
	TypeAttention = "attention"
)

// recentWindow is how far back an upload still counts as "just processed".
const recentWindow = 5 * time.Minute

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	PONumber  string    `json:"po_number,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is one reconciliation pass worth of inputs. Groups carry the
// classification output; the record lists are only consulted for recent
// upload notices.
type Snapshot struct {
	Groups   map[string]*recon.DocumentGroup
	Invoices []recon.InvoiceRecord
	Packings []recon.PackingRecord
	Now      time.Time
}

// Build derives the notification list for a snapshot. IDs are content hashes,
// so building the same snapshot twice yields the same IDs and the store can
// upsert instead of duplicating. Output is ordered newest first, attention
// items before success notices on ties.
func Build(snap Snapshot) []Notification {
	now := snap.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-recentWindow)

	var out []Notification

	for _, inv := range snap.Invoices {
		if inv.CreatedAt.After(cutoff) {
			label := inv.InvoiceNo
			if label == "" {
				label = inv.ID
			}
			out = append(out, Notification{
				ID:        notificationID("processed:invoice", inv.ID),
				Type:      TypeSuccess,
				Title:     "Invoice Processed",
				Message:   fmt.Sprintf("%s processed successfully", label),
				PONumber:  inv.PurchaseOrderNo,
				CreatedAt: inv.CreatedAt,
			})
		}
	}
	for _, pl := range snap.Packings {
		if pl.CreatedAt.After(cutoff) {
			label := pl.PackingNo
			if label == "" {
				label = pl.ID
			}
			out = append(out, Notification{
				ID:        notificationID("processed:packing", pl.ID),
				Type:      TypeSuccess,
				Title:     "Packing List Processed",
				Message:   fmt.Sprintf("%s processed successfully", label),
				PONumber:  pl.PurchaseOrderNo,
				CreatedAt: pl.CreatedAt,
			})
		}
	}

	for _, key := range recon.SortedKeys(snap.Groups) {
		group := snap.Groups[key]
		switch recon.Classify(group) {
		case recon.ExceptionQuantityMismatch, recon.ExceptionItemCodeMismatch, recon.ExceptionPartialMatch:
			out = append(out, Notification{
				ID:        notificationID("mismatch", key),
				Type:      TypeAttention,
				Title:     "Mismatch Detected",
				Message:   fmt.Sprintf("Item mismatch in PO-%s requires review", key),
				PONumber:  key,
				CreatedAt: now,
			})
		case recon.ExceptionMissingPackingList:
			out = append(out, Notification{
				ID:        notificationID("missing", key),
				Type:      TypeAttention,
				Title:     "Missing Document",
				Message:   fmt.Sprintf("Packing list missing for PO-%s", key),
				PONumber:  key,
				CreatedAt: now,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if out[i].Type != out[j].Type {
			return out[i].Type == TypeAttention
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func notificationID(kind, key string) string {
	sum := sha256.Sum256([]byte(kind + ":" + key))
	return fmt.Sprintf("%s-%x", kind, sum[:6])
}
