package main

import (
	"remitgate/internal/config"
	"remitgate/internal/pkg/password"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, err := bootstrap()
		if err != nil {
			return err
		}
		return config.CloseDatabase()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo employees and pending transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()

		hasher := password.NewHasher(cfg.Hashing.Params, cfg.Hashing.Workers)
		return config.NewSeeder(db, hasher).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
