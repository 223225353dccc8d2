package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/image/colornames"

	"github.com/example/magicdraw/internal/render"
)

type colorsCmd struct {
	*root
	fs     *flag.FlagSet
	filter string
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	cmd := &colorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.filter, "filter", "", "only list colours whose name contains this text")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *colorsCmd) Run() error {
	return listColors(os.Stdout, c.filter)
}

// listColors prints every CSS colour name with a swatch when the terminal
// supports colour.
func listColors(w io.Writer, filter string) error {
	out := termenv.NewOutput(w)
	filter = strings.ToLower(filter)
	n := 0
	for _, name := range colornames.Names {
		if filter != "" && !strings.Contains(name, filter) {
			continue
		}
		hex := render.Hex(colornames.Map[name])
		swatch := out.String("    ").Background(out.Color(hex))
		if _, err := fmt.Fprintf(w, "%s %-22s %s\n", swatch, name, hex); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		_, err := fmt.Fprintln(w, "no colours match")
		return err
	}
	return nil
}
