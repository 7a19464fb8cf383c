package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/corenet-ops/nsp-faultmon/internal/store"
)

// renderActive writes the active alarm listing as an aligned table.
func renderActive(w io.Writer, rows []store.ActiveAlarmRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No active alarms.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ALARM ID\tALARM NAME\tNE\tSEVERITY\tFIRST DETECTED\tLAST DETECTED\tLAST UPDATED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.AlarmID,
			orDash(r.AlarmName),
			orDash(r.NEName),
			orDash(r.Severity),
			orDash(r.FirstDetected),
			orDash(r.LastDetected),
			r.LastUpdated.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

// renderHistory writes the cleared alarm listing as an aligned table.
func renderHistory(w io.Writer, rows []store.HistoryAlarmRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No alarm history.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ALARM ID\tALARM NAME\tNE\tSEVERITY\tLAST DETECTED\tCLEARED AT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.AlarmID,
			orDash(r.AlarmName),
			orDash(r.NEName),
			orDash(r.Severity),
			orDash(r.LastDetected),
			r.ClearedAt.Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

// renderJSON pretty-prints a stored payload.
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderHistoryEntry prints the cleared payload with cleared_at merged
// into the alarm object, the shape operators expect from the old viewer.
func renderHistoryEntry(w io.Writer, entry *store.HistoryEntry) error {
	data, err := json.Marshal(entry.Alarm)
	if err != nil {
		return fmt.Errorf("encoding alarm: %w", err)
	}

	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("decoding alarm: %w", err)
	}
	merged["cleared_at"] = entry.ClearedAt.Format(time.RFC3339Nano)

	return renderJSON(w, merged)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
