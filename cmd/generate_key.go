/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/arbitrage-service/internal/bootstrap"
	"github.com/spf13/cobra"
)

// generateKeyCmd represents the generateKey command
var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Print a random encryption secret and salt",
	Long:  `Print a random encryption secret and salt for the encryption section of config.yml`,
	Run:   bootstrap.StartGenerateKey,
	// no config file is needed to generate a key
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func init() {
	rootCmd.AddCommand(generateKeyCmd)
}
