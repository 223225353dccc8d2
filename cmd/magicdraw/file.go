package main

import (
	"flag"
	"strings"
)

type fileCmd struct {
	path string
	op   string
	args []string
	*root
	fs *flag.FlagSet
}

func (f *fileCmd) FlagSet() *flag.FlagSet {
	return f.fs
}

func (f *fileCmd) Template() string {
	return "file.txt"
}

func parseFileCmd(args []string, r *root) (*fileCmd, error) {
	fs := flag.NewFlagSet("file", flag.ExitOnError)
	cmd := &fileCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.path, "file", "", "path to the drawing to read or write")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cmd.path == "" || fs.NArg() < 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.op = strings.ToLower(fs.Arg(0))
	cmd.args = fs.Args()[1:]
	return cmd, nil
}

func (f *fileCmd) Run() error {
	child := f.root.subcommand("file")
	args := append([]string{"-file", f.path}, f.args...)
	var (
		cmd runnable
		err error
	)
	switch f.op {
	case "draw":
		cmd, err = parseDrawCmd(args, child)
	case "export":
		cmd, err = parseExportCmd(args, child)
	case "inspect":
		cmd, err = parseInspectCmd(args, child)
	case "view":
		cmd, err = parseViewCmd(args, child)
	case "interactive":
		cmd, err = parseInteractiveCmd(args, child)
	default:
		return &UsageError{of: f}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}
