// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/berkanimo/autolatex/internal/history"
	"github.com/berkanimo/autolatex/internal/webui"
	"github.com/berkanimo/autolatex/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser frontend",
	Long: `Serve starts the web frontend: a single-file upload form compiled with
the local pdflatex, a batch runner streaming progress over a websocket, and
a file server for finished artifacts.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("pdflatex", "", "explicit path to the pdflatex executable")
	serveCmd.Flags().Duration("timeout", 0, "HTTP request timeout for batch compiles (default 90s)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}

	pdflatex, _ := cmd.Flags().GetString("pdflatex")
	if pdflatex == "" {
		pdflatex = viper.GetString("local.pdflatex_path")
	}

	remoteCfg := remoteConfig(cmd, workdir)
	srv := &webui.Server{
		Local: types.LocalConfig{
			WorkDir:      workdir,
			PdflatexPath: pdflatex,
		},
		Batch: types.BatchConfig{
			Remote:         remoteCfg,
			MaxConcurrency: viper.GetInt("batch.max_concurrency"),
		},
		Client: &http.Client{Timeout: remoteCfg.Timeout},
		Log:    os.Stderr,
	}

	if store, err := history.Open(workdir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: compile history unavailable: %v\n", err)
	} else {
		srv.History = store
		defer store.Close()
	}

	addr, _ := cmd.Flags().GetString("addr")
	fmt.Fprintf(cmd.OutOrStdout(), "Serving autolatex on %s (workdir: %s)\n", addr, workdir)
	return srv.ListenAndServe(addr)
}
