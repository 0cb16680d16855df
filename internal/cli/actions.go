package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/ui"
)

var (
	rmForceFlag bool
	rmYesFlag   bool
)

var startCmd = &cobra.Command{
	Use:   "start <container>...",
	Short: "Start one or more containers",
	Long: `Start stopped containers by name or id.

Examples:
  dockman start web
  dockman start web worker`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actionCommand(cmd, resource.Container, engine.OpStart, args, false)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <container>...",
	Short: "Stop one or more containers",
	Long: `Stop running containers by name or id. Each container gets
timeouts.stop to exit before it is killed.

Examples:
  dockman stop web`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actionCommand(cmd, resource.Container, engine.OpStop, args, false)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <container>...",
	Short: "Restart one or more containers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actionCommand(cmd, resource.Container, engine.OpRestart, args, false)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <kind> <name-or-id>...",
	Short: "Remove containers, images, volumes or networks",
	Long: `Remove objects of one kind. Asks for confirmation unless --yes is
given; without a terminal, --yes is required.

Examples:
  dockman rm container web
  dockman rm image nginx:latest --force
  dockman rm volume pgdata --yes`,
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{"container", "image", "volume", "network"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := ParseKindArg(args[0])
		if err != nil {
			return err
		}
		refs := args[1:]
		if !rmYesFlag {
			ok, err := confirmRemove(kind, refs)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}
		return actionCommand(cmd, kind, engine.OpRemove, refs, rmForceFlag)
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForceFlag, "force", "f", false, "remove running containers and images in use")
	rmCmd.Flags().BoolVarP(&rmYesFlag, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(startCmd, stopCmd, restartCmd, rmCmd)
}

// interactive reports whether prompts can be shown. Tests replace it.
var interactive = func() bool {
	return ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
}

// confirm asks a yes/no question. Tests replace it.
var confirm = func(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Remove").
				Negative("Cancel").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrExec,
			"Failed to get confirmation",
			"Pass --yes to remove without a prompt")
	}
	return ok, nil
}

func confirmRemove(kind resource.Kind, refs []string) (bool, error) {
	if machineMode || !interactive() {
		return false, errors.New(errors.ErrConfig,
			"Refusing to remove without confirmation",
			"Pass --yes to remove non-interactively.")
	}
	noun := kind.Singular()
	if len(refs) > 1 {
		noun = kind.String()
	}
	return confirm(fmt.Sprintf("Remove %s %s?", noun, strings.Join(refs, ", ")))
}

// actionResult is one entry of --json action output.
type actionResult struct {
	Action string     `json:"action"`
	Kind   string     `json:"kind"`
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	OK     bool       `json:"ok"`
	Error  *JSONError `json:"error,omitempty"`
}

// actionCommand runs op against each ref in order. A failure does not stop
// the remaining refs; the exit status reflects the first failure.
func actionCommand(cmd *cobra.Command, kind resource.Kind, op engine.Op, refs []string, force bool) error {
	ctx := cmd.Context()
	eng, _, err := openEngine(ctx, engine.WithAllContainers(true))
	if err != nil {
		return err
	}
	defer eng.Close()

	errOut := cmd.ErrOrStderr()
	var (
		results  []actionResult
		firstErr error
	)
	for _, ref := range refs {
		id, name := resolveRef(ctx, eng, kind, ref)
		a := engine.Action{Kind: kind, ID: id, Op: op, Force: force}

		err := runAction(ctx, eng, a, name, errOut)
		res := actionResult{Action: op.String(), Kind: kind.Singular(), ID: id, Name: name, OK: err == nil}
		if err != nil {
			res.Error = ErrorToJSON(err)
			if firstErr == nil {
				firstErr = err
			}
		}
		results = append(results, res)
	}

	if machineMode {
		env := JSONEnvelope{Success: firstErr == nil, Data: results, Error: ErrorToJSON(firstErr)}
		if err := writeJSONEnvelope(cmd.OutOrStdout(), env); err != nil {
			return err
		}
	}
	if firstErr != nil {
		return errors.NewExitError(errors.ExitCodeFor(firstErr))
	}
	return nil
}

// runAction shows a spinner while one action runs and prints its failure.
func runAction(ctx context.Context, eng *engine.Engine, a engine.Action, name string, errOut io.Writer) error {
	if machineMode {
		return eng.Mutate(ctx, a)
	}

	s := ui.NewSpinner(a.Describe(name))
	s.SetOutput(func(str string) { fmt.Fprint(errOut, str) })
	s.SetAnimated(ui.IsTerminal(errOut))
	s.Start()

	if err := eng.Mutate(ctx, a); err != nil {
		s.Fail()
		fmt.Fprintln(errOut, err)
		return err
	}
	s.Success()
	return nil
}

// resolveRef maps a name, short id or tag to the object's key using the
// current listing. Unmatched refs are passed through for the daemon to
// resolve.
func resolveRef(ctx context.Context, eng *engine.Engine, kind resource.Kind, ref string) (id, name string) {
	records, err := eng.Read(ctx, kind)
	if err != nil {
		return ref, ref
	}
	rec, ok := resource.Find(records, ref)
	if !ok {
		return ref, ref
	}
	return rec.Key(), ref
}
