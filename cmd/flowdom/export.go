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
	"os"

	"github.com/AleutianAI/flowdom/services/flow/export"
	"github.com/AleutianAI/flowdom/services/flow/loader"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a graph with its dominator edges as dot, mermaid or json",
		Args:  exactlyOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := loader.LoadFile(args[0])
			if err != nil {
				return err
			}
			out, err := a.service().Export(cmd.Context(), doc, f)
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err = io.WriteString(a.out, out)
				return err
			}
			if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			a.printer().Success("wrote " + outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatDOT), "output format: dot, mermaid or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
