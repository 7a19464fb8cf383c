package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corenet-ops/nsp-faultmon/internal/store"
)

// listFlags is the shared filter surface of the listing commands.
type listFlags struct {
	limit          int
	severity       string
	ne             string
	fromTime       string
	toTime         string
	correlatedOnly bool
	excludeRoot    bool
}

func (f *listFlags) register(cmd *cobra.Command, withCorrelation bool) {
	cmd.Flags().IntVar(&f.limit, "limit", 20, "Maximum rows to return (max 100)")
	cmd.Flags().StringVar(&f.severity, "severity", "", "Filter by exact severity (e.g. CRITICAL)")
	cmd.Flags().StringVar(&f.ne, "ne", "", "Filter by NE name substring, case-insensitive")
	cmd.Flags().StringVar(&f.fromTime, "from-time", "", "Lower time bound, ISO 8601")
	cmd.Flags().StringVar(&f.toTime, "to-time", "", "Upper time bound, ISO 8601")
	if withCorrelation {
		cmd.Flags().BoolVar(&f.correlatedOnly, "correlated-only", false,
			"Show only child alarms that correlation would attribute to a root")
		cmd.Flags().BoolVar(&f.excludeRoot, "exclude-root", false,
			"Hide root-cause alarms (Power Issue, Loss of signal - OCH)")
	}
}

func (f *listFlags) params() store.AlarmListParams {
	return store.AlarmListParams{
		Limit:          f.limit,
		Severity:       f.severity,
		NESearch:       f.ne,
		From:           f.fromTime,
		To:             f.toTime,
		CorrelatedOnly: f.correlatedOnly,
		ExcludeRoot:    f.excludeRoot,
	}
}

var activeFlags listFlags

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List standing alarms, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListActive(cmd.Context(), activeFlags.params())
		if err != nil {
			return fmt.Errorf("listing active alarms: %w", err)
		}
		return renderActive(os.Stdout, rows)
	},
}

var historyFlags listFlags

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List cleared alarms, most recently cleared first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListHistory(cmd.Context(), historyFlags.params())
		if err != nil {
			return fmt.Errorf("listing alarm history: %w", err)
		}
		return renderHistory(os.Stdout, rows)
	},
}

var activeFullCmd = &cobra.Command{
	Use:   "active-full <alarm_id>",
	Short: "Print the full stored payload of one standing alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		alarm, err := st.GetActive(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching alarm: %w", err)
		}
		if alarm == nil {
			return fmt.Errorf("active alarm not found: %s", args[0])
		}
		return renderJSON(os.Stdout, alarm)
	},
}

var historyFullCmd = &cobra.Command{
	Use:   "history-full <alarm_id>",
	Short: "Print the most recent cleared payload of one alarm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		entry, err := st.GetLatestHistory(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching alarm history: %w", err)
		}
		if entry == nil {
			return fmt.Errorf("history alarm not found: %s", args[0])
		}
		return renderHistoryEntry(os.Stdout, entry)
	},
}

func init() {
	activeFlags.register(activeCmd, true)
	historyFlags.register(historyCmd, false)

	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(activeFullCmd)
	rootCmd.AddCommand(historyFullCmd)
}
