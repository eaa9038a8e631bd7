/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/arbitrage-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// arbitrageGatewayCmd represents the arbitrageGateway command
var arbitrageGatewayCmd = &cobra.Command{
	Use:   "arbitrage-gateway",
	Short: "Start the Arbitrage Gateway service",
	Long: `The Arbitrage Gateway serves the REST API for tokens, exchange credentials,
wallet, prices and opportunities, and pushes lifecycle events to websocket
clients. Events produced by detection workers are relayed from NATS JetStream.`,
	Run: bootstrap.StartArbitrageGateway,
}

func init() {
	rootCmd.AddCommand(arbitrageGatewayCmd)
}
