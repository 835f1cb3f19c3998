package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"ecg-monitor/internal/transport"
)

// Ports lists serial ports, marking any that look like the sampler hardware.
func (a *App) Ports() error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(os.Stdout, "no serial ports found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Port\tUSB\tVID:PID\tProduct\t")

	for _, p := range ports {
		id := ""
		if p.IsUSB {
			id = fmt.Sprintf("%s:%s", p.VID, p.PID)
		}
		marker := ""
		if p.Sampler {
			marker = "(sampler)"
		}
		fmt.Fprintf(writer, "%s\t%v\t%s\t%s\t%s\n", p.Name, p.IsUSB, id, p.Product, marker)
	}

	writer.Flush()
	return nil
}
