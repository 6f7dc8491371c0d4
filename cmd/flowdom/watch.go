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
	"context"
	"errors"
	"log/slog"

	"github.com/AleutianAI/flowdom/services/flow/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-analyse a graph document every time it changes",
		Args:  exactlyOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			_ = a.analyzeFile(cmd, path)

			w, err := watch.New([]string{path}, func([]string) {
				a.printer().Blank()
				if err := a.analyzeFile(cmd, path); err != nil {
					slog.Debug("watch: analysis failed", slog.String("error", err.Error()))
				}
			}, watch.DefaultDebounce)
			if err != nil {
				return err
			}
			defer w.Stop()

			a.printer().Bullet(a.printer().Muted("watching " + path + ", Ctrl-C to stop"))
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
