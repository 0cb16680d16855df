package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/resource"
)

var logsTailFlag int

var logsCmd = &cobra.Command{
	Use:   "logs <container>",
	Short: "Print the last lines of a container's output",
	Long: `Print the tail of a container's stdout and stderr.

Defaults to logs.tail lines from the config.

Examples:
  dockman logs web
  dockman logs web --tail 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return logsCommand(cmd, args[0])
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsTailFlag, "tail", "n", -1, "number of lines (default from logs.tail)")
	rootCmd.AddCommand(logsCmd)
}

func logsCommand(cmd *cobra.Command, ref string) error {
	ctx := cmd.Context()
	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	tail := cfg.Logs.Tail
	if logsTailFlag >= 0 {
		tail = logsTailFlag
	}

	id, _ := resolveRef(ctx, eng, resource.Container, ref)
	out, err := eng.Logs(ctx, id, tail)
	if err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(cmd.OutOrStdout(), map[string]interface{}{
			"id":    id,
			"lines": splitLines(out),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	if out != "" && !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
