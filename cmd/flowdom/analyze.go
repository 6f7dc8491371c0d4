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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AleutianAI/flowdom/pkg/ux"
	"github.com/AleutianAI/flowdom/services/flow"
	"github.com/AleutianAI/flowdom/services/flow/loader"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the dominator tree, frontiers, merge points and loops of a graph",
		Args:  exactlyOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.analyzeFile(cmd, args[0])
		},
	}
}

func (a *app) analyzeFile(cmd *cobra.Command, path string) error {
	doc, err := loader.LoadFile(path)
	if err != nil {
		a.printer().Error(err.Error())
		return err
	}
	res, err := a.service().Analyze(cmd.Context(), doc)
	if err != nil {
		a.printer().Error(err.Error())
		return err
	}

	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printReport(a.printer(), res)
	return nil
}

// printReport renders an analysis for humans.
func printReport(p *ux.Printer, res *flow.AnalysisResult) {
	name := res.Name
	if name == "" {
		name = "graph"
	}
	p.Title(name)

	width := 0
	for _, b := range res.Blocks {
		width = max(width, len(b.Name))
	}

	p.Section("Dominator tree")
	for _, b := range res.Blocks {
		idom := b.ImmediateDominator
		switch {
		case b.Depth < 0:
			idom = p.Muted("unreached")
		case idom == "":
			idom = p.Muted("root")
		}
		p.KeyValue(b.Name, width, fmt.Sprintf("idom %s  depth %s", idom, depthString(b.Depth)))
	}

	p.Section("Dominance frontiers")
	shown := false
	for _, b := range res.Blocks {
		if len(b.Frontier) == 0 {
			continue
		}
		shown = true
		p.KeyValue(b.Name, width, "{"+strings.Join(b.Frontier, ", ")+"}")
	}
	if !shown {
		p.Bullet(p.Muted("all empty"))
	}

	p.Section("Merge points")
	if len(res.MergePoints) == 0 {
		p.Bullet(p.Muted("none"))
	}
	for _, m := range res.MergePoints {
		p.Bullet(fmt.Sprintf("%s (%d)", p.Highlight(m.Block), m.Degree))
	}

	p.Section("Loops")
	if len(res.Loops) == 0 {
		p.Bullet(p.Muted("none"))
	}
	for _, l := range res.Loops {
		line := fmt.Sprintf("%s%s: %s", strings.Repeat("  ", l.Depth), p.Highlight(l.Header), strings.Join(l.Body, ", "))
		p.Bullet(line)
	}

	p.Blank()
	summary := fmt.Sprintf("%d blocks, %d iterations", len(res.Blocks), res.Iterations)
	if res.Reducible {
		p.Success("reducible, " + summary)
	} else {
		p.Warning("irreducible, " + summary)
	}
}

func depthString(d int) string {
	if d < 0 {
		return "-"
	}
	return fmt.Sprint(d)
}
