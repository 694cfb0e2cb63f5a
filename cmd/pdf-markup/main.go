// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf-markup CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-markup/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the pdf-markup CLI.
var rootCmd = &cobra.Command{
	Use:   "pdf-markup",
	Short: "Annotate PDF pages and apply the edits through a processing service",
	Long: `pdf-markup records annotation operations against PDF pages (text, shapes,
page rotations and deletions), previews them over the rendered page, and
submits the batch to a remote processing service that materializes the
edited documents.

Use serve for the interactive browser editor, or apply and preview to work
from an operations file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf-markup.yaml or ~/.config/pdf-markup/pdf-markup.yaml)")
	rootCmd.PersistentFlags().String("endpoint", "", "processing service batch endpoint (overrides processing.endpoint)")
	rootCmd.PersistentFlags().String("renderer", "", "page renderer: tabula or poppler (overrides editor.renderer)")

	viper.BindPFlag("processing.endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("editor.renderer", rootCmd.PersistentFlags().Lookup("renderer"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdf-markup")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdf-markup"))
		}
	}

	setDefaults(viper.GetViper())
	viper.SetEnvPrefix("PDF_MARKUP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
