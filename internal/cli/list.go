package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/ui"
)

var psAllFlag bool

// psCmd lists containers with their usage
var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List containers with CPU and memory usage",
	Long: `List containers with live CPU and memory usage.

Only running containers are listed unless --all is given. Stopped
containers show zero usage.

Examples:
  dockman ps
  dockman ps -a
  dockman ps --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd, resource.Container, engine.WithAllContainers(psAllFlag))
	},
}

var imagesCmd = &cobra.Command{
	Use:     "images",
	Aliases: []string{"image"},
	Short:   "List images",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd, resource.Image)
	},
}

var volumesCmd = &cobra.Command{
	Use:     "volumes",
	Aliases: []string{"volume"},
	Short:   "List volumes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd, resource.Volume)
	},
}

var networksCmd = &cobra.Command{
	Use:     "networks",
	Aliases: []string{"network"},
	Short:   "List networks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(cmd, resource.Network)
	},
}

func init() {
	psCmd.Flags().BoolVarP(&psAllFlag, "all", "a", false, "include stopped containers")
	rootCmd.AddCommand(psCmd, imagesCmd, volumesCmd, networksCmd)
}

// listCommand reads one kind and prints it as a table or JSON.
func listCommand(cmd *cobra.Command, kind resource.Kind, opts ...engine.Option) error {
	eng, cfg, err := openEngine(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	records, err := eng.Read(cmd.Context(), kind)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if machineMode {
		return WriteJSONSuccess(out, records)
	}
	printRecords(out, kind, records, cfg.Thresholds)
	return nil
}

// printRecords writes a table followed by a one-line summary.
func printRecords(w io.Writer, kind resource.Kind, records []resource.Record, th config.ThresholdConfig) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No %s.\n", kind)
		return
	}

	rows := resource.Rows(records)
	if kind == resource.Container {
		colorUsage(records, rows, th)
	}
	fmt.Fprintln(w, ui.RenderSimpleTable(ui.ColumnsFor(kind), rows))
	fmt.Fprintln(w, summarize(kind, records))
}

// Column indexes of the container usage cells.
const (
	cpuColumn    = 4
	memPctColumn = 6
)

func colorUsage(records []resource.Record, rows [][]string, th config.ThresholdConfig) {
	for i, r := range records {
		c, ok := r.(resource.ContainerRecord)
		if !ok || !c.Running() {
			continue
		}
		rows[i][cpuColumn] = ui.RenderUsage(rows[i][cpuColumn], c.CPUPercent, th.CPU.Warning, th.CPU.Critical)
		rows[i][memPctColumn] = ui.RenderUsage(rows[i][memPctColumn], c.MemoryPercent, th.Memory.Warning, th.Memory.Critical)
	}
}

// summarize describes a listing, e.g. "3 containers, 2 running".
func summarize(kind resource.Kind, records []resource.Record) string {
	n := humanize.Comma(int64(len(records)))
	switch kind {
	case resource.Container:
		running := 0
		for _, r := range records {
			if c, ok := r.(resource.ContainerRecord); ok && c.Running() {
				running++
			}
		}
		return fmt.Sprintf("%s %s, %d running", n, plural(kind, len(records)), running)
	case resource.Image:
		var total float64
		for _, r := range records {
			if img, ok := r.(resource.ImageRecord); ok {
				total += img.SizeMB
			}
		}
		return fmt.Sprintf("%s %s, %s total", n, plural(kind, len(records)), humanize.IBytes(uint64(total*1024*1024)))
	}
	return fmt.Sprintf("%s %s", n, plural(kind, len(records)))
}

func plural(kind resource.Kind, n int) string {
	if n == 1 {
		return kind.Singular()
	}
	return kind.String()
}
