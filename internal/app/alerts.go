package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Alerts prints recent alert episodes from the audit log.
func (a *App) Alerts(ctx context.Context, opts AlertsOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot list alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tObserved (UTC)\tKind\tBPM\tThreshold\tChannels")

	for _, alert := range alerts {
		bpm := "--"
		if alert.BPM != nil {
			bpm = fmt.Sprintf("%d", *alert.BPM)
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%d\t%s\n",
			alert.ID,
			alert.ObservedAt.UTC().Format(time.RFC3339),
			alert.Kind,
			bpm,
			alert.Threshold,
			strings.Join(alert.Channels, ","),
		)
	}

	writer.Flush()
	return nil
}
