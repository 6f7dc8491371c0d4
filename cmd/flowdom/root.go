// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"io"

	"github.com/AleutianAI/flowdom/pkg/logging"
	"github.com/AleutianAI/flowdom/pkg/ux"
	"github.com/AleutianAI/flowdom/services/flow"
	"github.com/AleutianAI/flowdom/services/flow/config"
	"github.com/spf13/cobra"
)

// app holds state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg    *config.Config
	logger *logging.Logger
	out    io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "flowdom",
		Short: "Dominance analysis for control flow graphs",
		Long: `flowdom computes immediate dominators, dominator trees and dominance
frontiers for control flow graphs described in YAML or JSON, and reports
merge points, natural loops and reducibility.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a flowdom YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print machine-readable JSON")
	root.SetOut(a.out)

	root.AddCommand(
		newAnalyzeCmd(a),
		newExportCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging.LoggerConfig("flowdom"))
	a.logger.SetDefault()
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func (a *app) service() *flow.Service {
	return flow.NewService(a.cfg.Analysis)
}

func (a *app) printer() *ux.Printer {
	return ux.NewPrinter(a.out, a.jsonOut)
}

func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%s requires exactly one graph document, got %d", cmd.Name(), len(args))
	}
	return nil
}
