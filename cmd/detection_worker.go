/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/arbitrage-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// detectionWorkerCmd represents the detectionWorker command
var detectionWorkerCmd = &cobra.Command{
	Use:   "detection-worker",
	Short: "Start the periodic arbitrage detection worker",
	Long: `The detection worker runs an opportunity detection cycle over every active
token on a fixed interval, persists what it finds and publishes the events
to NATS JetStream.`,
	Run: bootstrap.StartDetectionWorker,
}

func init() {
	rootCmd.AddCommand(detectionWorkerCmd)
}
