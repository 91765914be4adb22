package domain

import "time"

// Event types
const (
	EventTypeVoucherPosted   = "voucher.posted"
	EventTypeVoucherReversed = "voucher.reversed"
	EventTypeDebtAllocated   = "debt.allocated"
	EventTypeDebtReversed    = "debt.reversed"
)

// Aggregate types
const (
	AggregateTypeVoucher = "voucher"
	AggregateTypePayment = "payment"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewVoucherPostedEvent builds the outbox event for a freshly posted voucher.
func NewVoucherPostedEvent(id string, v *Voucher, now time.Time) *OutboxEvent {
	// A reversal shares the aggregate of the voucher it undoes so relays keep
	// the two in order.
	eventType, aggregateID := EventTypeVoucherPosted, v.ID
	payload := map[string]any{
		"voucher_id":   v.ID,
		"doc_no":       v.DocNo,
		"type":         string(v.Type),
		"period":       v.Period.String(),
		"post_date":    v.PostDate.Format(DateLayout),
		"total_amount": v.TotalAmount.String(),
		"line_count":   len(v.Lines),
	}
	if v.ReversesVoucherID != nil {
		eventType, aggregateID = EventTypeVoucherReversed, *v.ReversesVoucherID
		payload["original_voucher_id"] = *v.ReversesVoucherID
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   aggregateID,
		AggregateType: AggregateTypeVoucher,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// NewDebtAllocationEvent builds the outbox event for a debt allocation or reversal.
func NewDebtAllocationEvent(id, eventType, paymentID string, lines []DebtAllocationLine, now time.Time) *OutboxEvent {
	invoices := make(map[string]any, len(lines))
	for _, l := range lines {
		invoices[l.InvoiceID] = l.AllocatedAmount.String()
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   paymentID,
		AggregateType: AggregateTypePayment,
		EventType:     eventType,
		Payload: map[string]any{
			"payment_id": paymentID,
			"total":      TotalAllocated(lines).String(),
			"invoices":   invoices,
		},
		CreatedAt: now,
	}
}
