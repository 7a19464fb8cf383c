package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corenet-ops/nsp-faultmon/db/migrate"
)

var deleteActiveCmd = &cobra.Command{
	Use:   "delete-active <alarm_id>",
	Short: "Delete one standing alarm by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteActive(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted active alarm %s\n", args[0])
		return nil
	},
}

var deleteHistoryCmd = &cobra.Command{
	Use:   "delete-history <alarm_id>",
	Short: "Delete every history row of one alarm id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.DeleteHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d history row(s) for %s\n", deleted, args[0])
		return nil
	},
}

var purgeActiveCmd = &cobra.Command{
	Use:   "purge-active",
	Short: "Delete all standing alarms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.PurgeActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("purging active alarms: %w", err)
		}
		fmt.Printf("Deleted %d active alarm(s)\n", deleted)
		return nil
	},
}

var purgeHistoryCmd = &cobra.Command{
	Use:   "purge-history",
	Short: "Delete all history rows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.PurgeHistory(cmd.Context())
		if err != nil {
			return fmt.Errorf("purging alarm history: %w", err)
		}
		fmt.Printf("Deleted %d history row(s)\n", deleted)
		return nil
	},
}

var pruneOlderThan int

var pruneHistoryCmd = &cobra.Command{
	Use:   "prune-history",
	Short: "Delete history rows past the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pruneOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.PruneHistory(cmd.Context(), pruneOlderThan)
		if err != nil {
			return fmt.Errorf("pruning alarm history: %w", err)
		}
		fmt.Printf("Deleted %d history row(s) older than %d day(s)\n", deleted, pruneOlderThan)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate.Run(resolveDatabaseURL(), newLogger())
	},
}

func init() {
	pruneHistoryCmd.Flags().IntVar(&pruneOlderThan, "older-than", 90,
		"Delete history rows cleared more than this many days ago")

	rootCmd.AddCommand(deleteActiveCmd)
	rootCmd.AddCommand(deleteHistoryCmd)
	rootCmd.AddCommand(purgeActiveCmd)
	rootCmd.AddCommand(purgeHistoryCmd)
	rootCmd.AddCommand(pruneHistoryCmd)
	rootCmd.AddCommand(migrateCmd)
}
