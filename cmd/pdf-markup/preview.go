// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [pdf file]",
	Short: "Render one page with its operations replayed to a PNG",
	Long: `Preview renders a page of the document and draws the text and shape
operations of the operations file on top, in file order, exactly as the
interactive editor does. Page transforms are not drawn unless
editor.preview_transforms is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("ops", "", "operations file (YAML or JSON list)")
	previewCmd.Flags().Int("page", 1, "page number to render (1-based)")
	previewCmd.Flags().String("out", "preview.png", "output PNG path")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	opsPath, _ := cmd.Flags().GetString("ops")
	page, _ := cmd.Flags().GetInt("page")
	out, _ := cmd.Flags().GetString("out")
	ctx := cmd.Context()

	ed, err := loadSession(ctx, appConfig(), args, opsPath)
	if err != nil {
		return err
	}
	defer ed.Close()

	ed.GoTo(page - 1)
	if err := ed.LoadPage(ctx); err != nil {
		return err
	}
	if got := ed.Snapshot().CurrentPage + 1; got != page {
		fmt.Fprintf(os.Stderr, "warning: page %d is out of range; rendering page %d\n", page, got)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := png.Encode(f, ed.Preview()); err != nil {
		f.Close()
		return fmt.Errorf("encoding preview: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", out)
	return nil
}
