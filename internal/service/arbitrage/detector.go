package arbitrage

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Detector finds the best cross-exchange spread in one token's quote set. It
// holds no state besides its thresholds and is safe for concurrent use.
type Detector struct {
	cfg   config.ArbitrageConfig
	now   func() time.Time
	newID func() string
}

func NewDetector(cfg config.ArbitrageConfig) *Detector {
	return &Detector{
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Detect buys at the lowest ask and sells at the highest bid. Ties keep the
// first quote in input order. Thresholds compare unrounded values; only the
// emitted spread, confidence and amount are rounded.
func (d *Detector) Detect(token entity.Token, quotes []entity.Quote) (*entity.ArbitrageOpportunity, bool) {
	valid := make([]entity.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Ask.IsPositive() && q.Bid.IsPositive() {
			valid = append(valid, q)
		}
	}
	if len(valid) < 2 {
		return nil, false
	}

	lowestAsk, highestBid := valid[0], valid[0]
	for _, q := range valid[1:] {
		if q.Ask.LessThan(lowestAsk.Ask) {
			lowestAsk = q
		}
		if q.Bid.GreaterThan(highestBid.Bid) {
			highestBid = q
		}
	}

	if strings.EqualFold(lowestAsk.Exchange, highestBid.Exchange) {
		return nil, false
	}

	spread := highestBid.Bid.Sub(lowestAsk.Ask)
	spreadPercent := spread.Div(lowestAsk.Ask).Mul(hundred)
	if spreadPercent.LessThanOrEqual(d.cfg.MinSpreadPercent) {
		return nil, false
	}

	return &entity.ArbitrageOpportunity{
		ID:                    d.newID(),
		TokenID:               token.ID,
		TokenSymbol:           token.Symbol,
		BuyExchange:           lowestAsk.Exchange,
		SellExchange:          highestBid.Exchange,
		BuyPrice:              lowestAsk.Ask,
		SellPrice:             highestBid.Bid,
		SpreadPercent:         spreadPercent.Round(4),
		Confidence:            d.Confidence(spreadPercent).Round(2),
		RecommendedUSDTAmount: d.RecommendedAmount(spreadPercent).Round(2),
		Status:                entity.OpportunityStatusDetected,
		DetectedAt:            d.now(),
	}, true
}

// Confidence is min(cap, base + spreadPercent*multiplier).
func (d *Detector) Confidence(spreadPercent decimal.Decimal) decimal.Decimal {
	return decimal.Min(d.cfg.ConfidenceCap, d.cfg.ConfidenceBase.Add(spreadPercent.Mul(d.cfg.ConfidenceMultiplier)))
}

// RecommendedAmount clamps spreadPercent*multiplier into [min, max].
func (d *Detector) RecommendedAmount(spreadPercent decimal.Decimal) decimal.Decimal {
	return decimal.Min(d.cfg.MaxAmount, decimal.Max(d.cfg.MinAmount, spreadPercent.Mul(d.cfg.AmountMultiplier)))
}
