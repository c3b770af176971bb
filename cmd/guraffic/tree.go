package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	guraffic "github.com/jonathanharg/guraffic-park"
)

// printTree writes the scene's hierarchy to w, one entity per line, with type prefixes colored when w is a
// terminal that supports it.
func printTree(w io.Writer, scene *guraffic.Scene) {

	out := termenv.NewOutput(w)
	g := scene.Graph

	colorFor := func(t guraffic.NodeType) termenv.Color {
		switch {
		case t.Is(guraffic.NodeTypeModel):
			return termenv.ANSIGreen
		case t.Is(guraffic.NodeTypeCamera):
			return termenv.ANSIBlue
		case t.Is(guraffic.NodeTypeLight):
			return termenv.ANSIYellow
		}
		return termenv.ANSIWhite
	}

	active := guraffic.Nil
	if cam := scene.ActiveCamera(); cam != nil {
		active = cam.Handle()
	}

	var walk func(h guraffic.Handle, depth int)
	walk = func(h guraffic.Handle, depth int) {

		t := g.Type(h)
		prefix := out.String("[" + t.Prefix() + "]").Foreground(colorFor(t)).Bold().String()

		line := strings.Repeat("    |", depth)
		if depth > 0 {
			line += "-"
		}
		line += " " + prefix + " " + g.Name(h) + " : " + guraffic.FormatVec(g.WorldPosition(h), 2)

		if h == active {
			line += out.String(" (active)").Faint().String()
		}
		if !g.Visible(h) {
			line += out.String(" (hidden)").Faint().String()
		}

		fmt.Fprintln(w, line)

		for _, child := range g.Children(h) {
			walk(child, depth+1)
		}

	}

	for _, root := range g.Roots() {
		walk(root, 0)
	}

}
