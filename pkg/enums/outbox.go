package enums

// OutboxEventType names the domain events written through the outbox.
type OutboxEventType string

const (
	EventSaleCompleted       OutboxEventType = "sale.completed"
	EventInventoryUploaded   OutboxEventType = "inventory.uploaded"
	EventRetailerCreditMoved OutboxEventType = "retailer.credit_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleCompleted,
	EventInventoryUploaded,
	EventRetailerCreditMoved,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateSale     OutboxAggregateType = "sale"
	AggregateRetailer OutboxAggregateType = "retailer"
	AggregateVoucher  OutboxAggregateType = "voucher_batch"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	switch o {
	case AggregateSale, AggregateRetailer, AggregateVoucher:
		return true
	}
	return false
}

// OutboxDLQErrorReason classifies why an event landed in the dead-letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
