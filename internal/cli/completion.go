package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/resource"
)

func init() {
	for _, c := range []*cobra.Command{startCmd, stopCmd, restartCmd, logsCmd} {
		c.ValidArgsFunction = completeContainers
	}
	rmCmd.ValidArgsFunction = completeRemove
}

func completeContainers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if cmd == logsCmd && len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeNames(cmd, resource.Container), cobra.ShellCompDirectiveNoFileComp
}

// completeRemove offers kinds for the first argument, then names of that kind.
func completeRemove(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	kind, err := resource.ParseKind(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeNames(cmd, kind), cobra.ShellCompDirectiveNoFileComp
}

// completeNames lists the names a user would type for each object of kind.
// Any failure yields no suggestions.
func completeNames(cmd *cobra.Command, kind resource.Kind) []string {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	eng, _, err := openEngine(ctx)
	if err != nil {
		return nil
	}
	defer eng.Close()

	records, err := eng.Read(ctx, kind)
	if err != nil {
		return nil
	}

	var names []string
	for _, r := range records {
		switch v := r.(type) {
		case resource.ContainerRecord:
			names = append(names, v.Name)
		case resource.ImageRecord:
			if len(v.Tags) == 0 || v.Tags[0] == resource.UntaggedTag {
				names = append(names, v.ID)
				continue
			}
			names = append(names, v.Tags...)
		case resource.VolumeRecord:
			names = append(names, v.Name)
		case resource.NetworkRecord:
			names = append(names, v.Name)
		}
	}
	return names
}
