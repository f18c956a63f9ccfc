package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meigma/collate"
)

var (
	listRecursive bool
	listLong      bool
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List resources in the table of contents",
	Long: `List prints the resources directly inside dir, or every resource below it
with --recursive. Without dir the top level of the table of contents is listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "list resources at any depth")
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "show page, offset and size")
}

func openAccessor() (*collate.Accessor, error) {
	return collate.NewAccessor(cfg.TableOfContents, collate.WithLogger(slog.Default()))
}

func runList(cmd *cobra.Command, args []string) error {
	acc, err := openAccessor()
	if err != nil {
		return err
	}

	var dir string
	if len(args) > 0 {
		dir = args[0]
	}
	var paths []string
	if listRecursive {
		paths, err = acc.ListRecursive(dir)
	} else {
		paths, err = acc.List(dir)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range paths {
		if !listLong {
			fmt.Fprintln(out, p)
			continue
		}
		loc, err := acc.Resource(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%d\t%d\t%d\n", p, loc.PageIndex, loc.Offset, loc.Size)
	}
	return nil
}
