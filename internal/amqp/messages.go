package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageKind discriminates the envelope payloads carried on the sync queue.
type MessageKind string

const (
	KindLayoutSync    MessageKind = "layout_sync"
	KindExpenseExport MessageKind = "expense_export"
)

// LayoutSyncMessage asks the worker to push one owner's layout for one report
// type to the remote store. The worker reads the current sections from the
// local database, so the message carries only the coordinates.
type LayoutSyncMessage struct {
	OwnerID    string    `json:"ownerId"`
	ReportType string    `json:"reportType"`
	Timestamp  time.Time `json:"timestamp"`
}

// ExpenseExportMessage asks the worker to append one expense to the external
// spreadsheet. Only ID and version travel; the worker fetches the full row.
type ExpenseExportMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is the wire format on the sync queue. Exactly one payload field is
// populated, selected by Kind.
type Envelope struct {
	Kind          MessageKind           `json:"kind"`
	LayoutSync    *LayoutSyncMessage    `json:"layoutSync,omitempty"`
	ExpenseExport *ExpenseExportMessage `json:"expenseExport,omitempty"`
}

func NewLayoutSyncEnvelope(ownerID, reportType string) *Envelope {
	return &Envelope{
		Kind: KindLayoutSync,
		LayoutSync: &LayoutSyncMessage{
			OwnerID:    ownerID,
			ReportType: reportType,
			Timestamp:  time.Now(),
		},
	}
}

func NewExpenseExportEnvelope(id, version int64) *Envelope {
	return &Envelope{
		Kind: KindExpenseExport,
		ExpenseExport: &ExpenseExportMessage{
			ID:        id,
			Version:   version,
			Timestamp: time.Now(),
		},
	}
}

// ToJSON converts the envelope to JSON bytes
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON decodes and validates an envelope from JSON bytes.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindLayoutSync:
		if e.LayoutSync == nil {
			return nil, fmt.Errorf("layout_sync envelope missing payload")
		}
	case KindExpenseExport:
		if e.ExpenseExport == nil {
			return nil, fmt.Errorf("expense_export envelope missing payload")
		}
	default:
		return nil, fmt.Errorf("unknown message kind: %q", e.Kind)
	}
	return &e, nil
}
