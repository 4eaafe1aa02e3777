package stockwatch

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	"github.com/TRPST/airvoucher-backend/pkg/logger"
	"github.com/TRPST/airvoucher-backend/pkg/outbox"
	"github.com/TRPST/airvoucher-backend/pkg/outbox/payloads"
)

type stockCounter interface {
	CountAvailable(ctx context.Context, voucherTypeID uuid.UUID, amount decimal.Decimal) (int64, error)
}

type typeLoader interface {
	GetType(ctx context.Context, voucherTypeID uuid.UUID) (*models.VoucherType, error)
}

type processResult struct {
	ack  bool
	nack bool
}

// Consumer watches the sale-events stream and warns when a denomination's
// remaining stock drops to the alert threshold. Vendor-issued types carry no
// local stock and are skipped.
type Consumer struct {
	inventory    stockCounter
	types        typeLoader
	subscription *pubsub.Subscriber
	threshold    int64
	logg         *logger.Logger
}

func NewConsumer(inventory stockCounter, types typeLoader, subscription *pubsub.Subscriber, threshold int64, logg *logger.Logger) (*Consumer, error) {
	if inventory == nil {
		return nil, errors.New("inventory repository is required")
	}
	if types == nil {
		return nil, errors.New("voucher type repository is required")
	}
	if subscription == nil {
		return nil, errors.New("sale events subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if threshold < 0 {
		threshold = 0
	}
	return &Consumer{
		inventory:    inventory,
		types:        types,
		subscription: subscription,
		threshold:    threshold,
		logg:         logg,
	}, nil
}

// Run processes sale events until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventSaleCompleted {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode payload envelope", err)
		return processResult{ack: true}
	}

	var sale payloads.SaleCompletedEvent
	if err := json.Unmarshal(envelope.Data, &sale); err != nil {
		c.logg.Error(logCtx, "failed to decode sale payload", err)
		return processResult{ack: true}
	}
	if sale.VoucherTypeID == uuid.Nil {
		c.logg.Warn(logCtx, "sale payload missing voucher type id")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"sale_id":         sale.SaleID.String(),
		"voucher_type_id": sale.VoucherTypeID.String(),
		"amount":          sale.Amount.String(),
	})

	voucherType, err := c.types.GetType(ctx, sale.VoucherTypeID)
	if err != nil {
		c.logg.Error(logCtx, "failed to load voucher type", err)
		return processResult{nack: true}
	}
	if voucherType.VendorIssued {
		return processResult{ack: true}
	}

	remaining, err := c.inventory.CountAvailable(ctx, sale.VoucherTypeID, sale.Amount)
	if err != nil {
		c.logg.Error(logCtx, "failed to count remaining stock", err)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithField(logCtx, "remaining", remaining)
	if remaining <= c.threshold {
		c.logg.Warn(logCtx, "denomination stock at or below alert threshold")
	} else {
		c.logg.Info(logCtx, "sale event processed")
	}
	return processResult{ack: true}
}
