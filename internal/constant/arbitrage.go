package constant

import "fmt"

const (
	ArbitrageStreamName             = "arbitrage"
	ArbitrageStreamSubjectAll       = "arbitrage.*"
	ArbitrageStreamSubjectDetected  = "arbitrage.detected"
	ArbitrageStreamSubjectCompleted = "arbitrage.completed"

	EventTypeArbitrageDetected  = "arbitrage_detected"
	EventTypeArbitrageCompleted = "arbitrage_completed"
	EventTypePing               = "ping"
	EventTypePong               = "pong"

	DatabaseArbitrage = "arbitrage"
	RedisCache        = "cache"

	PortArbitrageGatewayHTTP = "arbitrage_gateway_http"
)

func GetArbitrageStreamSubject(eventType string) string {
	switch eventType {
	case EventTypeArbitrageDetected:
		return ArbitrageStreamSubjectDetected
	case EventTypeArbitrageCompleted:
		return ArbitrageStreamSubjectCompleted
	default:
		return fmt.Sprintf("%s.%s", ArbitrageStreamName, eventType)
	}
}

func GetOpportunityDedupKey(tokenID, buyExchange, sellExchange string) string {
	return fmt.Sprintf("arbitrage:dedup:%s:%s:%s", tokenID, buyExchange, sellExchange)
}
