package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/magicdraw/internal/config"
)

type configCmd struct {
	*root
	fs     *flag.FlagSet
	format string
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.format, "format", "", "rc or toml (save defaults to the format of the file in use)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}
	switch args[0] {
	case "print":
		return c.write(os.Stdout, c.format)
	case "save":
		return c.runSave()
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) write(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "", "rc":
		_, err := io.WriteString(w, c.root.config.String())
		return err
	case "toml":
		data, err := c.root.config.TOML()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown config format %q", format)
}

func (c *configCmd) runSave() error {
	loader := config.NewLoader(version, configPathOverride)
	path := loader.GetConfigPath()
	format := c.format
	if path == "" {
		name := "config.rc"
		if strings.EqualFold(format, "toml") {
			name = "config.toml"
		}
		path = filepath.Join(loader.Dir(), name)
	} else if format == "" && strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer f.Close()
	if err := c.write(f, format); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
