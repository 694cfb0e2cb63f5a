// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/editor"
	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply [pdf files...]",
	Short: "Submit an operations file against one or more PDFs",
	Long: `Apply reads annotation operations from a YAML or JSON file, validates them
against the first document, and submits the batch with every named PDF to
the processing service. The edited document (or an archive when several
files are given) is written to the output directory.

Operations use the wire fields: kind, page (0-based), position {x, y},
text, font_size, color, shape, width, height, filled, transform, angle.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().String("ops", "", "operations file (YAML or JSON list)")
	applyCmd.Flags().String("out", ".", "directory for the processed result")
	applyCmd.Flags().Bool("dry-run", false, "print the operations without submitting")
	applyCmd.MarkFlagRequired("ops")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files")
	}
	opsPath, _ := cmd.Flags().GetString("ops")
	outDir, _ := cmd.Flags().GetString("out")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	cfg := appConfig()
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ed, err := loadSession(ctx, cfg, args, opsPath, editor.WithHistory(store))
	if err != nil {
		return err
	}
	defer ed.Close()

	fmt.Fprint(os.Stdout, ed.Summary())
	if dryRun {
		return nil
	}

	res, err := ed.Submit(ctx)
	if err != nil {
		return describeSubmitError(err)
	}
	path, err := res.Save(outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Saved %s (%d bytes)\n", path, len(res.Data))
	return nil
}

// loadSession builds an editor over the named PDFs with the operations of
// opsPath appended. An empty opsPath appends nothing.
func loadSession(ctx context.Context, cfg types.AppConfig, paths []string, opsPath string, opts ...editor.Option) (*editor.Editor, error) {
	files, err := readFiles(paths)
	if err != nil {
		return nil, err
	}
	var drafts []types.Draft
	if opsPath != "" {
		if drafts, err = readOperations(opsPath); err != nil {
			return nil, err
		}
	}
	renderer, err := newRenderer(cfg.Editor)
	if err != nil {
		return nil, err
	}

	client := submit.NewClient(cfg.Processing)
	client.Status = os.Stderr
	opts = append([]editor.Option{
		editor.WithPreviewTransforms(cfg.Editor.PreviewTransforms),
		editor.WithStatus(os.Stderr),
	}, opts...)
	ed := editor.New(document.NewLoader(renderer, cfg.Editor.Scale), client, opts...)

	if err := ed.SelectFiles(ctx, files); err != nil {
		ed.Close()
		return nil, err
	}
	for i, d := range drafts {
		if _, err := ed.Add(d); err != nil {
			ed.Close()
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
	}
	return ed, nil
}

// describeSubmitError rewords submission failures for the terminal.
func describeSubmitError(err error) error {
	var (
		rpe *submit.RemoteProcessingError
		ce  *submit.ConnectivityError
	)
	switch {
	case errors.As(err, &rpe):
		msg := fmt.Sprintf("processing service rejected the batch (HTTP %d): %s", rpe.Status, rpe.Message)
		if rpe.ShowUpgrade {
			msg += " (plan limit reached; upgrade to continue)"
		}
		return errors.New(msg)
	case errors.As(err, &ce):
		return fmt.Errorf("could not reach the processing service: %w", ce.Err)
	}
	return err
}

