package entity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Publisher interface {
	JetstreamEventInit(ctx context.Context) error
}

type Subscriber interface {
	JetstreamEventSubscribe(ctx context.Context) error
}

// NotificationEvent is pushed to every notification listener. Origin names the
// process that produced it so relays can skip their own events.
type NotificationEvent struct {
	Type          string                `json:"type"`
	OpportunityID string                `json:"opportunity_id,omitempty"`
	Profit        *decimal.Decimal      `json:"profit,omitempty"`
	ProfitPercent *decimal.Decimal      `json:"profit_percent,omitempty"`
	Opportunity   *ArbitrageOpportunity `json:"opportunity,omitempty"`
	Origin        string                `json:"origin,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}
