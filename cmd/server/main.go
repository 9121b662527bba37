package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "remitgate/docs" // Swagger docs
)

// @title remitgate API
// @version 1.0
// @description Staff authentication and transaction authorization API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email ops@remitgate.internal

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// rootCmd starts the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:           "remitgate",
	Short:         "Bank staff authentication and transaction authorization service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
