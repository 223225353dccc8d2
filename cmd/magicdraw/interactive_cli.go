package main

import "flag"

type interactiveCLI struct {
	*interactiveCmd

	fs *flag.FlagSet

	execs       commandList
	file        string
	sessionName string
	socketDir   string
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCLI, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	cli := &interactiveCLI{fs: fs}
	fs.Usage = usageFunc(cli)
	fs.Var(&cli.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.StringVar(&cli.file, "file", "", "drawing to open first; save without arguments writes back to it")
	fs.StringVar(&cli.sessionName, "name", "", "background session to send -e commands to")
	fs.StringVar(&cli.sessionName, "session", "", "background session to send -e commands to (alias)")
	fs.StringVar(&cli.socketDir, "dir", "", "directory that stores magicdraw sockets")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cli}
	}
	cli.interactiveCmd = newInteractiveCmd(r)
	return cli, nil
}

func (c *interactiveCLI) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *interactiveCLI) Program() string {
	return c.r.Program()
}

func (c *interactiveCLI) Run() error {
	if c.sessionName != "" {
		dir, err := resolveSocketDir(c.socketDir)
		if err != nil {
			return err
		}
		if len(c.execs) == 0 {
			return attachSocket(dir, c.sessionName, c.stdin, c.stdout, c.stderr)
		}
		return runSocketCommands(dir, c.sessionName, c.execs, c.stdout, c.stderr)
	}
	defer func() { c.eng.Close() }()
	if c.file != "" {
		if err := c.open(c.file, true); err != nil {
			return err
		}
	}
	if len(c.execs) > 0 {
		for _, cmd := range c.execs {
			done, err := c.executeLine(cmd)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}
	return c.interactiveCmd.Run()
}
