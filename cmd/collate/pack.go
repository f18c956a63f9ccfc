package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/collate"
)

var (
	pageSize string
	readSize string
)

var packCmd = &cobra.Command{
	Use:   "pack <path>...",
	Short: "Collate files into pages and write the table of contents",
	Long: `Pack copies every given file, and every regular file below each given
directory, into collated pages at the base path, then writes the table of
contents. Resources are recorded under the paths as found, so pack from the
directory the resources will later be read from.

If packing fails the pages written so far are removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVar(&pageSize, "page-size", "", "maximum page size, e.g. 64MiB (0 for a single page)")
	packCmd.Flags().StringVar(&readSize, "read-size", "", "copy buffer size, e.g. 4MiB")
}

func runPack(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("page-size") {
		cfg.PageSize = pageSize
	}
	if cmd.Flags().Changed("read-size") {
		cfg.ReadSize = readSize
	}
	pageBytes, err := cfg.PageSizeBytes()
	if err != nil {
		return err
	}
	readBytes, err := cfg.ReadSizeBytes()
	if err != nil {
		return err
	}

	files, total, err := expandInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no regular files found in %v", args)
	}

	bar := newProgress(total, true, !noProgress)
	toc := collate.NewTableOfContents(cfg.TableOfContents)
	c, err := collate.NewCollator(toc, cfg.BasePath,
		collate.WithPageSize(pageBytes),
		collate.WithReadSize(readBytes),
		collate.WithCollatorLogger(slog.Default()),
		collate.WithProgress(func(ev collate.ProgressEvent) {
			if ev.Stage == collate.StagePacking {
				bar.update(int64(ev.BytesDone), ev.Path)
			}
		}),
	)
	if err != nil {
		return err
	}
	for _, f := range files {
		c.AddResource(f)
	}

	err = c.Execute(cmd.Context())
	bar.finish()
	if err == nil {
		err = toc.Write()
	}
	if err != nil {
		c.Revert()
		return fmt.Errorf("pack failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "packed %d resources (%s) into %d pages at %s\n",
		toc.Len(), humanize.IBytes(uint64(total)), len(c.Created()), cfg.BasePath)
	return nil
}

// expandInputs resolves files and directories into a sorted, de-duplicated
// list of regular files and their total size.
func expandInputs(args []string) ([]string, int64, error) {
	sizes := make(map[string]int64)
	add := func(path string, info fs.FileInfo) {
		sizes[filepath.Clean(path)] = info.Size()
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, 0, err
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				add(arg, info)
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				add(path, info)
			}
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
	}

	var total int64
	for _, size := range sizes {
		total += size
	}
	return slices.Sorted(maps.Keys(sizes)), total, nil
}
