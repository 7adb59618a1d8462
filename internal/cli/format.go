package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/pretty"

	"github.com/metorial/machineinfo/internal/app"
	"github.com/metorial/machineinfo/internal/models"
)

func FormatJSON(w io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = w.Write(pretty.Pretty(raw))
	return err
}

func FormatSnapshotTable(w io.Writer, snap app.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PROCESSOR")
	fmt.Fprintf(tw, "  Name:\t%s\n", orDash(snap.Processor.Name))
	fmt.Fprintf(tw, "  Vendor:\t%s\n", orDash(snap.Processor.Vendor))
	fmt.Fprintf(tw, "  Family:\t%s\n", snap.Processor.Family)
	fmt.Fprintf(tw, "  Speed:\t%s\n", snap.Processor.Speed)
	fmt.Fprintf(tw, "  Cores:\t%s\n", snap.Processor.Cores)
	fmt.Fprintf(tw, "  Usage:\t%s\n", snap.Processor.Usage)
	if len(snap.Processor.PerCore) > 0 {
		fmt.Fprintf(tw, "  Per Core:\t%s\n", formatPerCore(snap.Processor.PerCore))
	}

	fmt.Fprintln(tw, "MEMORY")
	fmt.Fprintf(tw, "  Total:\t%s\n", orDash(snap.Memory.Total))
	fmt.Fprintf(tw, "  Used:\t%s\n", orDash(snap.Memory.Used))
	fmt.Fprintf(tw, "  Free:\t%s\n", orDash(snap.Memory.Free))

	fmt.Fprintln(tw, "STORAGE")
	if snap.Storage.Empty() {
		fmt.Fprintln(tw, "  No disks found")
	} else {
		s := snap.Storage
		fmt.Fprintf(tw, "  Name:\t%s\n", deref(s.Name))
		fmt.Fprintf(tw, "  Mount Point:\t%s\n", deref(s.MountPoint))
		fmt.Fprintf(tw, "  File System:\t%s\n", deref(s.FileSystem))
		fmt.Fprintf(tw, "  Type:\t%s\n", deref(s.Type))
		fmt.Fprintf(tw, "  Total:\t%s\n", deref(s.TotalSpace))
		fmt.Fprintf(tw, "  Used:\t%s\n", deref(s.UsedSpace))
		fmt.Fprintf(tw, "  Free:\t%s\n", deref(s.FreeSpace))
		fmt.Fprintf(tw, "  Percent Used:\t%s\n", deref(s.PercentUsed))
	}

	return tw.Flush()
}

func FormatWindowTable(w io.Writer, wi models.WindowInformation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "X\tY\tWIDTH\tHEIGHT\tMAXIMIZED\tFULLSCREEN\tMODIFIED")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%t\t%t\t%s\n",
		wi.X,
		wi.Y,
		wi.Width,
		wi.Height,
		wi.Maximized,
		wi.Fullscreen,
		formatModified(wi),
	)
	return tw.Flush()
}

func FormatDimension(w io.Writer, dim models.Dimension) error {
	_, err := fmt.Fprintf(w, "%sx%s\n", dim.Width, dim.Height)
	return err
}

func formatModified(wi models.WindowInformation) string {
	if wi.ModifiedAt.IsZero() {
		return "never"
	}
	return humanize.Time(wi.ModifiedAt)
}

func formatPerCore(usage []float64) string {
	parts := make([]string, len(usage))
	for i, u := range usage {
		parts[i] = strconv.FormatFloat(u, 'f', 1, 64)
	}
	return strings.Join(parts, " ")
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
