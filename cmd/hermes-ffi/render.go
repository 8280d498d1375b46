package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/transcoder"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// renderer writes tool output, styled only when stdout is a terminal.
type renderer struct {
	out    io.Writer
	styled bool
}

func (r renderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r renderer) kinds() {
	r.printf("%s\n\n", r.style(titleStyle, "Hermes records"))
	for _, k := range hermes.Kinds() {
		lay, _ := transcoder.Layout(k)
		note := ""
		if !transcoder.Reversible(k) {
			note = "  (forward only)"
		}
		r.printf("  %-28s %-32s size %2d align %d%s\n",
			r.style(nameStyle, k.String()), r.style(typeStyle, lay.Name), lay.Size, lay.Align, note)
	}
}

func (r renderer) layout(lay *layout.Record) {
	r.printf("%s size %d align %d\n\n", r.style(titleStyle, lay.Name), lay.Size, lay.Align)
	r.fields(lay, "", 0)
}

func (r renderer) fields(lay *layout.Record, indent string, base uint32) {
	for _, f := range lay.Fields {
		var notes []string
		if f.Nullable {
			notes = append(notes, "nullable")
		}
		switch f.Shape {
		case layout.Buffer:
			notes = append(notes, "length in "+f.Sibling)
		case layout.Enum:
			notes = append(notes, fmt.Sprintf("1..%d", f.Max))
		case layout.Opaque:
			notes = append(notes, f.Opaque)
		case layout.Union:
			for i, v := range f.Variants {
				notes = append(notes, fmt.Sprintf("%s=%d:%s", f.Sibling, i+1, v.Name))
			}
		}
		r.printf("%s  %3d  %-30s %-12s %2d  %s\n",
			indent, base+f.Offset, r.style(nameStyle, f.Name), r.style(typeStyle, f.Shape.String()), f.Size, strings.Join(notes, ", "))

		switch f.Shape {
		case layout.Embedded:
			r.fields(f.Elem, indent+"  ", base+f.Offset)
		case layout.Union:
			for _, v := range f.Variants {
				if v.Elem != nil {
					r.printf("%s       -> %s (%s, size %d)\n", indent, v.Name, v.Elem.Name, v.Elem.Size)
					r.fields(v.Elem, indent+"       ", 0)
				}
			}
		}
	}
}

func (r renderer) conversion(backend string, c *conversion) {
	r.printf("%s %s in %s memory\n", r.style(titleStyle, c.kind.String()), fmt.Sprintf("@0x%08x", c.addr), backend)
	r.printf("record %d bytes, %d blocks / %d bytes live\n\n", c.size, c.live.LiveBlocks, c.live.LiveBytes)
	r.printf("%s", c.dump)

	r.printf("\nreverse: ")
	if c.reverseErr != nil {
		r.printf("%s\n", r.style(errorStyle, c.reverseErr.Error()))
	} else {
		r.printf("%s\n", r.style(resultStyle, string(c.roundTrip)))
	}

	r.printf("release: ")
	switch {
	case c.releaseErr != nil:
		r.printf("%s\n", r.style(errorStyle, c.releaseErr.Error()))
	case c.leaked():
		r.printf("%s\n", r.style(errorStyle, fmt.Sprintf("%d blocks leaked, %d faults", c.after.LiveBlocks, c.after.Faults)))
	default:
		r.printf("%s\n", r.style(resultStyle, "ok, 0 live allocations"))
	}
}
