package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/meigma/collate"
)

var (
	catOffset int64
	catLength int64
)

var catCmd = &cobra.Command{
	Use:   "cat <resource>",
	Short: "Write a resource to stdout",
	Long: `Cat reads a resource from the collated pages and writes it to stdout. A
resource missing from the table of contents is read from its real path.`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

func init() {
	catCmd.Flags().Int64Var(&catOffset, "offset", 0, "start reading at this byte offset")
	catCmd.Flags().Int64Var(&catLength, "length", -1, "number of bytes to write (-1 for the rest)")
}

func runCat(cmd *cobra.Command, args []string) error {
	acc, err := openAccessor()
	if err != nil {
		return err
	}
	r, err := collate.OpenReader(args[0], acc)
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.Seek(catOffset, io.SeekStart); err != nil {
		return err
	}
	var src io.Reader = r
	if catLength >= 0 {
		src = io.LimitReader(r, catLength)
	}
	_, err = io.Copy(cmd.OutOrStdout(), src)
	return err
}
