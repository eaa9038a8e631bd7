package arbitrage

import (
	"context"

	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// simulationSteps is the fixed execution ledger order.
var simulationSteps = []entity.TransactionStep{
	entity.StepValidateBalance,
	entity.StepDepositToBuyExchange,
	entity.StepPlaceBuyOrder,
	entity.StepWithdrawToWallet,
	entity.StepDepositToSellExchange,
	entity.StepPlaceSellOrder,
	entity.StepWithdrawProfits,
}

// Execute simulates the round trip of an opportunity. Input is validated
// before anything is written; once the status is executing, a write failure
// marks the opportunity failed.
func (s *Service) Execute(ctx context.Context, req entity.ExecuteArbitrageRequest) (*entity.ExecutionResult, error) {
	if !req.USDTAmount.IsPositive() {
		return nil, ErrInvalidExecutionAmount
	}

	opportunity, err := s.GetOpportunity(ctx, req.OpportunityID)
	if err != nil {
		return nil, err
	}

	if !opportunity.BuyPrice.IsPositive() {
		return nil, ErrInvalidBuyPrice
	}

	if !opportunity.Status.IsExecutable() {
		return nil, ErrOpportunityNotExecutable
	}

	logger := logrus.WithFields(logrus.Fields{
		"opportunity_id": opportunity.ID,
		"token":          opportunity.TokenSymbol,
		"usdt_amount":    req.USDTAmount.String(),
	})

	// a concurrent execution that already claimed the opportunity leaves no
	// matching row here
	claimed, err := s.opportunityRepo.TransitionStatus(ctx, opportunity.ID, entity.ExecutableOpportunityStatuses, entity.OpportunityStatusExecuting)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrOpportunityNotExecutable
	}

	logs := s.simulationLogs(opportunity, req.USDTAmount)
	if err := s.transactionRepo.CreateMany(ctx, logs); err != nil {
		return nil, s.markFailed(ctx, opportunity.ID, err)
	}

	result := SimulateProfit(opportunity.BuyPrice, opportunity.SellPrice, req.USDTAmount)
	result.OpportunityID = opportunity.ID
	result.TransactionLog = logs

	executing := []entity.OpportunityStatus{entity.OpportunityStatusExecuting}
	completed, err := s.opportunityRepo.TransitionStatus(ctx, opportunity.ID, executing, entity.OpportunityStatusCompleted)
	if err != nil {
		return nil, s.markFailed(ctx, opportunity.ID, err)
	}
	if !completed {
		return nil, s.markFailed(ctx, opportunity.ID, errExecutionInterrupted)
	}
	result.Status = entity.OpportunityStatusCompleted

	profit, profitPercent := result.Profit, result.ProfitPercent
	s.broadcast(ctx, entity.NotificationEvent{
		Type:          constant.EventTypeArbitrageCompleted,
		OpportunityID: opportunity.ID,
		Profit:        &profit,
		ProfitPercent: &profitPercent,
	})

	logger.WithFields(logrus.Fields{
		"profit":         result.Profit.String(),
		"profit_percent": result.ProfitPercent.String(),
	}).Info("simulated execution completed")

	return result, nil
}

func (s *Service) simulationLogs(opportunity *entity.ArbitrageOpportunity, amount decimal.Decimal) []entity.TransactionLog {
	details := map[entity.TransactionStep]entity.JSONMap{
		entity.StepValidateBalance:       {"usdt_amount": amount},
		entity.StepDepositToBuyExchange:  {"exchange": opportunity.BuyExchange},
		entity.StepPlaceBuyOrder:         {"price": opportunity.BuyPrice},
		entity.StepWithdrawToWallet:      {},
		entity.StepDepositToSellExchange: {"exchange": opportunity.SellExchange},
		entity.StepPlaceSellOrder:        {"price": opportunity.SellPrice},
		entity.StepWithdrawProfits:       {},
	}

	createdAt := s.now()
	logs := make([]entity.TransactionLog, 0, len(simulationSteps))
	for i, step := range simulationSteps {
		logs = append(logs, entity.TransactionLog{
			ID:            s.newID(),
			OpportunityID: opportunity.ID,
			Seq:           i + 1,
			Step:          step,
			Status:        entity.TransactionStatusCompleted,
			Details:       details[step],
			CreatedAt:     createdAt,
		})
	}

	return logs
}

// SimulateProfit buys amount worth of tokens at buyPrice and sells them at
// sellPrice. buyPrice and amount must be positive.
func SimulateProfit(buyPrice, sellPrice, amount decimal.Decimal) *entity.ExecutionResult {
	tokensBought := amount.Div(buyPrice)
	sellValue := tokensBought.Mul(sellPrice)
	profit := sellValue.Sub(amount)
	profitPercent := profit.Div(amount).Mul(hundred)

	return &entity.ExecutionResult{
		USDTInvested:  amount,
		TokensBought:  tokensBought.Round(8),
		SellValue:     sellValue.Round(4),
		Profit:        profit.Round(4),
		ProfitPercent: profitPercent.Round(4),
	}
}
