// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader reads control flow graphs from YAML or JSON documents.
//
// A document names its blocks and lists edges between them by name:
//
//	name: Program.Main
//	blocks:
//	  - {name: A, kind: normal, label: "IL_0000-IL_0005"}
//	  - {name: H, kind: catch}
//	edges:
//	  - {from: entry, to: A}
//	  - {from: A, to: H, type: other}
//	  - {from: H, to: exceptional_exit, type: other}
//
// The names entry, exit and exceptional_exit refer to the nodes every graph
// is created with and must not be declared.
package loader

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Reserved block names.
const (
	EntryName           = "entry"
	ExitName            = "exit"
	ExceptionalExitName = "exceptional_exit"
)

// Document is a named control flow graph.
type Document struct {
	Name   string  `json:"name" yaml:"name"`
	Blocks []Block `json:"blocks" yaml:"blocks" validate:"dive"`
	Edges  []Edge  `json:"edges" yaml:"edges" validate:"dive"`
}

// Block declares one basic block.
type Block struct {
	Name  string `json:"name" yaml:"name" validate:"required,blockname"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=normal catch finally"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Edge connects two blocks by name.
type Edge struct {
	From string `json:"from" yaml:"from" validate:"required,blockname"`
	To   string `json:"to" yaml:"to" validate:"required,blockname"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=normal leave_try end_finally other"`
}

// Limits bounds the size of a document accepted by Build.
type Limits struct {
	MaxBlocks int
	MaxEdges  int
}

// DefaultLimits are applied by Build.
var DefaultLimits = Limits{MaxBlocks: 100000, MaxEdges: 500000}

var documentValidate *validator.Validate

func init() {
	documentValidate = validator.New()
	_ = documentValidate.RegisterValidation("blockname", validateBlockName)
}

// validateBlockName rejects names containing whitespace or control
// characters, which cannot be rendered as export labels.
func validateBlockName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return !strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// Validate checks the document's field constraints.
func (d *Document) Validate() error {
	return documentValidate.Struct(d)
}

func isReserved(name string) bool {
	return name == EntryName || name == ExitName || name == ExceptionalExitName
}
