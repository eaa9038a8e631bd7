package bootstrap

import (
	"fmt"

	"github.com/krobus00/arbitrage-service/internal/crypto"
	"github.com/krobus00/arbitrage-service/internal/util"
	"github.com/spf13/cobra"
)

// StartGenerateKey prints a fresh encryption secret and salt for the
// encryption section of config.yml.
func StartGenerateKey(cmd *cobra.Command, args []string) {
	secret, err := crypto.GenerateSecret()
	util.ContinueOrFatal(err)

	salt, err := crypto.GenerateSecret()
	util.ContinueOrFatal(err)

	fmt.Fprintf(cmd.OutOrStdout(), "encryption:\n  secret: %q\n  salt: %q\n", secret, salt)
}
