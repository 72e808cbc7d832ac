// Command freightctl runs operator tasks against the freight database:
// migrations, seeding, rate card import and export, offline quotes and
// packing list exports.
package main

import (
	"fmt"
	"os"

	"github.com/hiflogistics/freight_backend/config"
	"github.com/hiflogistics/freight_backend/models"
	"github.com/hiflogistics/freight_backend/utils"
	"github.com/spf13/cobra"
)

// offline marks commands that never touch the database.
const offline = "offline"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var sqlitePath, actor string
	root := &cobra.Command{
		Use:           "freightctl",
		Short:         "Operator tools for the freight back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[offline] == "true" {
				return nil
			}
			if sqlitePath != "" {
				if _, err := config.OpenSQLite(sqlitePath); err != nil {
					return fmt.Errorf("opening %s: %w", sqlitePath, err)
				}
			} else {
				config.ConnectDatabaseWithRetry()
			}
			cmd.SetContext(utils.SetActorNameInContext(cmd.Context(), actor))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			db := config.GetDB()
			if db == nil {
				return nil
			}
			config.SetDB(nil)
			if sqlDB, err := db.DB(); err == nil {
				return sqlDB.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "use a local SQLite file instead of the DB_* MySQL settings")
	root.PersistentFlags().StringVar(&actor, "actor", "freightctl", "name recorded in history rows")

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newRatesCmd(),
		newQuoteCmd(),
		newPackingListCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.MigrateTable(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default delivery rates and document types",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := models.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed data loaded")
			return nil
		},
	}
}

func newPackingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packing-list",
		Short: "Packing list tools",
	}
	var out string
	export := &cobra.Command{
		Use:   "export ID",
		Short: "Write a packing list workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}
			f, err := models.ExportPackingList(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer f.Close()
			if out == "" {
				out = fmt.Sprintf("packing-list-%d.xlsx", id)
			}
			if err := f.SaveAs(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "output", "o", "", "output file")
	cmd.AddCommand(export)
	return cmd
}
