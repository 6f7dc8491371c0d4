// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux renders terminal output for the flowdom CLI.
//
// A Printer styles output with lipgloss when writing to a terminal and
// falls back to plain text otherwise, so piped output stays grep-friendly.
package ux

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Palette.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles holds the shared lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Printer writes styled or plain output.
type Printer struct {
	w     io.Writer
	plain bool
}

// NewPrinter returns a Printer writing to w. Styling is enabled only when w
// is a terminal and plain is false.
func NewPrinter(w io.Writer, plain bool) *Printer {
	if !plain {
		plain = !isTerminal(w)
	}
	return &Printer{w: w, plain: plain}
}

// Stdout returns a Printer for os.Stdout.
func Stdout(plain bool) *Printer {
	return NewPrinter(os.Stdout, plain)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Plain reports whether styling is disabled.
func (p *Printer) Plain() bool {
	return p.plain
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

// Title prints a bold heading.
func (p *Printer) Title(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "== %s ==\n", text)
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Section prints a subheading preceded by a blank line.
func (p *Printer) Section(text string) {
	p.Blank()
	fmt.Fprintln(p.w, p.render(Styles.Subtitle, text))
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// Success prints a line with a success mark.
func (p *Printer) Success(text string) {
	p.status(IconSuccess, Styles.Success, "OK", text)
}

// Warning prints a line with a warning mark.
func (p *Printer) Warning(text string) {
	p.status(IconWarning, Styles.Warning, "WARN", text)
}

// Error prints a line with an error mark.
func (p *Printer) Error(text string) {
	p.status(IconError, Styles.Error, "ERROR", text)
}

func (p *Printer) status(icon Icon, s lipgloss.Style, word, text string) {
	if p.plain {
		fmt.Fprintf(p.w, "%s: %s\n", word, text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", s.Render(string(icon)), s.Render(text))
}

// Bullet prints an indented list item.
func (p *Printer) Bullet(text string) {
	if p.plain {
		fmt.Fprintf(p.w, "  - %s\n", text)
		return
	}
	fmt.Fprintf(p.w, "  %s %s\n", Styles.Muted.Render(string(IconBullet)), text)
}

// KeyValue prints an aligned key and value.
func (p *Printer) KeyValue(key string, width int, value string) {
	pad := width - len(key)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.w, "  %s%s  %s\n", p.render(Styles.Bold, key), strings.Repeat(" ", pad), value)
}

// Box prints lines inside a rounded border, or unframed in plain mode.
func (p *Printer) Box(lines ...string) {
	body := strings.Join(lines, "\n")
	if p.plain {
		fmt.Fprintln(p.w, body)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Render(body))
}

// Muted renders text in the muted colour.
func (p *Printer) Muted(text string) string {
	return p.render(Styles.Muted, text)
}

// Highlight renders text in the highlight colour.
func (p *Printer) Highlight(text string) string {
	return p.render(Styles.Highlight, text)
}
