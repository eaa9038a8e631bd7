/*
Copyright © 2026 Michael Putera Wardana <michaelputeraw@gmail.com>
*/
package cmd

import (
	"github.com/krobus00/arbitrage-service/internal/bootstrap"
	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run goose migrations against a configured database",
	Long: `run goose migrations against a configured database.

Migrations are read from migration/postgresql/<databaseName>. The arbitrage database
holds tokens, exchange credentials, opportunities, transaction logs and the
wallet configuration.`,
	Run: bootstrap.StartMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.PersistentFlags().String("action", "up", "action create|up|up-by-one|up-to|down|down-to|reset|status")
	migrateCmd.PersistentFlags().Int64("version", 1, "version")
	migrateCmd.PersistentFlags().String("name", "", "migration name")
	migrateCmd.PersistentFlags().String("databaseName", constant.DatabaseArbitrage, "database name")
}
