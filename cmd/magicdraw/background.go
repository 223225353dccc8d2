package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func closeWithLog(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Debug("close failed", "what", name, "err", err)
	}
}

func removeWithLog(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove failed", "path", path, "err", err)
	}
}

type backgroundCmd struct {
	*root

	fs *flag.FlagSet

	op    string
	name  string
	dir   string
	file  string
	prune bool

	runArgs []string
}

func parseBackgroundCmd(args []string, r *root) (*backgroundCmd, error) {
	cmd := &backgroundCmd{root: r}
	if len(args) == 0 {
		cmd.fs = flag.NewFlagSet("background", flag.ExitOnError)
		return nil, &UsageError{of: cmd}
	}
	cmd.op = strings.ToLower(args[0])
	cmd.fs = flag.NewFlagSet("background "+cmd.op, flag.ContinueOnError)
	cmd.fs.SetOutput(io.Discard)
	cmd.fs.StringVar(&cmd.dir, "dir", "", "directory that stores magicdraw sockets")
	switch cmd.op {
	case "start", "stop", "attach", "run", "serve":
		cmd.fs.StringVar(&cmd.name, "name", "", "session name")
	case "list":
		cmd.fs.BoolVar(&cmd.prune, "prune", false, "remove sockets that no longer answer")
	default:
		return nil, &UsageError{of: cmd}
	}
	if cmd.op == "start" || cmd.op == "serve" {
		cmd.fs.StringVar(&cmd.file, "file", "", "drawing the session opens first")
	}
	if err := cmd.fs.Parse(args[1:]); err != nil {
		return nil, &UsageError{of: cmd}
	}

	rest := cmd.fs.Args()
	if cmd.op == "run" {
		cmd.runArgs = rest
		if len(cmd.runArgs) == 0 {
			return nil, errors.New("background run requires a command")
		}
		return cmd, nil
	}
	if cmd.op != "list" && cmd.name == "" && len(rest) > 0 {
		cmd.name, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return nil, &UsageError{of: cmd}
	}
	if cmd.op == "serve" && cmd.name == "" {
		return nil, errors.New("serve requires a session name")
	}
	return cmd, nil
}

func (b *backgroundCmd) FlagSet() *flag.FlagSet {
	return b.fs
}

func (b *backgroundCmd) Template() string {
	return "background.txt"
}

func (b *backgroundCmd) Run() error {
	dir, err := resolveSocketDir(b.dir)
	if err != nil {
		return err
	}
	switch b.op {
	case "list":
		return printSocketList(dir, b.prune, os.Stdout)
	case "start":
		name, err := startBackgroundServer(dir, b.name, b.file)
		if err != nil {
			return err
		}
		return writef(os.Stdout, "started background session %s at %s\n", name, socketPath(dir, name))
	case "stop":
		name, err := selectSession(dir, b.name, true)
		if err != nil {
			return err
		}
		if err := stopSocket(dir, name); err != nil {
			return err
		}
		return writef(os.Stdout, "stop requested for %s\n", name)
	case "attach":
		name, err := selectSession(dir, b.name, false)
		if err != nil {
			return err
		}
		return attachSocket(dir, name, os.Stdin, os.Stdout, os.Stderr)
	case "run":
		name, command, err := resolveRunTarget(dir, b.name, b.runArgs)
		if err != nil {
			return err
		}
		return runSocketCommands(dir, name, []string{command}, os.Stdout, os.Stderr)
	case "serve":
		return runSocketServer(dir, b.name, b.file, b.root)
	}
	return &UsageError{of: b}
}

func resolveSocketDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if dir := os.Getenv("MAGICDRAW_SOCKET_DIR"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS != "windows" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, "magicdraw"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".magicdraw", "sockets"), nil
}

type socketStatus struct {
	name string
	file string
	err  error
}

func collectSocketStatuses(dir string) ([]socketStatus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	statuses := make([]socketStatus, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (entry.Type()&os.ModeSocket == 0 && !strings.HasSuffix(name, ".sock")) {
			continue
		}
		status := socketStatus{name: strings.TrimSuffix(name, ".sock"), file: name}
		if err := pingSocket(filepath.Join(dir, name)); err != nil {
			status.err = normalizeSocketError(err)
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].name < statuses[j].name })
	return statuses, nil
}

func aliveSessions(statuses []socketStatus) []string {
	var alive []string
	for _, st := range statuses {
		if st.err == nil {
			alive = append(alive, st.name)
		}
	}
	return alive
}

func printSocketList(dir string, prune bool, out io.Writer) error {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return writeln(out, "no sessions found")
	}
	for _, st := range statuses {
		switch {
		case st.err == nil:
			err = writef(out, "  %s\n", st.name)
		case prune:
			removeWithLog(filepath.Join(dir, st.file))
			err = writef(out, "  %s (removed: %v)\n", st.name, st.err)
		default:
			err = writef(out, "  %s (dead: %v)\n", st.name, st.err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func socketPath(dir, name string) string {
	if !strings.HasSuffix(name, ".sock") {
		name += ".sock"
	}
	return filepath.Join(dir, name)
}

func startBackgroundServer(dir, name, file string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = nextSocketName(statuses)
	}
	for _, st := range statuses {
		if st.name != name {
			continue
		}
		if st.err == nil {
			return "", fmt.Errorf("session %s already running", name)
		}
		removeWithLog(filepath.Join(dir, st.file))
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	args := []string{"background", "serve", "-name", name, "-dir", dir}
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return "", err
		}
		args = append(args, "-file", abs)
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return "", err
	}
	if err := cmd.Process.Release(); err != nil {
		return "", err
	}
	socket := socketPath(dir, name)
	deadline := time.Now().Add(3 * time.Second)
	lastErr := errors.New("unknown startup failure")
	for time.Now().Before(deadline) {
		if err := pingSocket(socket); err != nil {
			lastErr = normalizeSocketError(err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("session %s did not become ready: %w", name, lastErr)
}

// selectSession picks the preferred session or, when none is named, the
// only running one. For stop a dead socket is acceptable too.
func selectSession(dir, preferred string, allowDead bool) (string, error) {
	statuses, err := collectSocketStatuses(dir)
	if err != nil {
		return "", err
	}
	alive := aliveSessions(statuses)
	if preferred != "" {
		if allowDead {
			return preferred, nil
		}
		for _, name := range alive {
			if name == preferred {
				return preferred, nil
			}
		}
		return "", fmt.Errorf("session %s is not running", preferred)
	}
	if allowDead && len(statuses) == 1 {
		return statuses[0].name, nil
	}
	switch len(alive) {
	case 0:
		return "", errors.New("no background sessions running")
	case 1:
		return alive[0], nil
	}
	return "", fmt.Errorf("multiple background sessions running; specify a session name (%s)", strings.Join(alive, ", "))
}

// resolveRunTarget splits "run [session] command..." into the session and
// the command line to send.
func resolveRunTarget(dir, preferred string, args []string) (string, string, error) {
	if preferred == "" && len(args) > 1 {
		statuses, err := collectSocketStatuses(dir)
		if err != nil {
			return "", "", err
		}
		for _, name := range aliveSessions(statuses) {
			if name == args[0] {
				preferred, args = args[0], args[1:]
				break
			}
		}
	}
	name, err := selectSession(dir, preferred, false)
	if err != nil {
		return "", "", err
	}
	return name, strings.Join(args, " "), nil
}

func nextSocketName(statuses []socketStatus) string {
	maxVal := 0
	for _, st := range statuses {
		if val, err := strconv.Atoi(st.name); err == nil && val > maxVal {
			maxVal = val
		}
	}
	return strconv.Itoa(maxVal + 1)
}

func normalizeSocketError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return errors.New("missing socket file")
	}
	if errors.Is(err, os.ErrPermission) {
		return errors.New("permission denied")
	}
	return err
}

var errSocketClosed = errors.New("socket closed by server")

// dialSession connects to a session and consumes its greeting.
func dialSession(path string) (net.Conn, *bufio.Scanner, error) {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return nil, nil, err
	}
	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = errors.New("socket closed")
		}
		closeWithLog("socket client", conn)
		return nil, nil, err
	}
	if scanner.Text() != "READY" {
		closeWithLog("socket client", conn)
		return nil, nil, fmt.Errorf("unexpected greeting: %s", scanner.Text())
	}
	return conn, scanner, nil
}

func pingSocket(path string) error {
	conn, scanner, err := dialSession(path)
	if err != nil {
		return err
	}
	defer closeWithLog("ping socket", conn)
	if err := conn.SetDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return err
	}
	if err := writeln(conn, "PING"); err != nil {
		return err
	}
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("no pong received")
	}
	if scanner.Text() != "PONG" {
		return fmt.Errorf("unexpected response: %s", scanner.Text())
	}
	return nil
}

// readResponse copies tagged output of one command to stdout and stderr
// until the DONE line.
func readResponse(scanner *bufio.Scanner, stdout, stderr io.Writer) error {
	for scanner.Scan() {
		line := scanner.Text()
		var err error
		switch {
		case strings.HasPrefix(line, "OUT "):
			err = writeln(stdout, strings.TrimPrefix(line, "OUT "))
		case strings.HasPrefix(line, "ERR "):
			err = writeln(stderr, strings.TrimPrefix(line, "ERR "))
		case strings.HasPrefix(line, "DONE OK"):
			if strings.HasSuffix(line, "CLOSE") {
				return errSocketClosed
			}
			return nil
		case strings.HasPrefix(line, "DONE ERR "):
			msg := strings.TrimPrefix(line, "DONE ERR ")
			return errors.New(strings.ReplaceAll(msg, "\\n", "\n"))
		default:
			err = writeln(stdout, line)
		}
		if err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errSocketClosed
}

func runSocketCommands(dir, name string, commands []string, stdout, stderr io.Writer) error {
	conn, scanner, err := dialSession(socketPath(dir, name))
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", conn)
	for _, cmd := range commands {
		if err := writef(conn, "EXEC %s\n", cmd); err != nil {
			return err
		}
		if err := readResponse(scanner, stdout, stderr); err != nil {
			if errors.Is(err, errSocketClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

func attachSocket(dir, name string, stdin io.Reader, stdout, stderr io.Writer) error {
	conn, scanner, err := dialSession(socketPath(dir, name))
	if err != nil {
		return err
	}
	defer closeWithLog("socket client", conn)
	input := bufio.NewScanner(stdin)
	for {
		if _, err := fmt.Fprint(stdout, "> "); err != nil {
			return err
		}
		if !input.Scan() {
			return input.Err()
		}
		if err := writef(conn, "EXEC %s\n", input.Text()); err != nil {
			return err
		}
		if err := readResponse(scanner, stdout, stderr); err != nil {
			if errors.Is(err, errSocketClosed) {
				return nil
			}
			fmt.Fprintln(stderr, err)
		}
	}
}

func stopSocket(dir, name string) error {
	path := socketPath(dir, name)
	conn, scanner, err := dialSession(path)
	if err != nil {
		// Nothing answers, so only the stale file is left to clean up.
		removeWithLog(path)
		return nil
	}
	defer closeWithLog("socket client", conn)
	if err := writeln(conn, "SHUTDOWN"); err != nil {
		return err
	}
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "DONE ") {
			break
		}
	}
	removeWithLog(path)
	return scanner.Err()
}

type taggedWriter struct {
	w   io.Writer
	tag string
}

func (t *taggedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	// Every line gets the tag so multi-line output survives the protocol.
	lines := strings.SplitAfter(string(p), "\n")
	var sb strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		sb.WriteString(t.tag)
		sb.WriteString(line)
	}
	if _, err := io.WriteString(t.w, sb.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// socketServer exposes one interactive session over a unix socket. Commands
// from all connections run one at a time against the same drawing.
type socketServer struct {
	session  *interactiveCmd
	path     string
	logger   *slog.Logger
	stopOnce sync.Once
	stopCh   chan struct{}
	listener net.Listener
	execMu   sync.Mutex
}

func runSocketServer(dir, name, file string, r *root) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := socketPath(dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	session := newInteractiveCmd(r)
	if file != "" {
		if err := session.open(file, true); err != nil {
			return err
		}
	}
	server := &socketServer{
		session: session,
		path:    path,
		logger:  r.log().With("session", name),
		stopCh:  make(chan struct{}),
	}
	return server.run()
}

func (s *socketServer) run() error {
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = ln
	defer removeWithLog(s.path)
	defer func() { s.session.eng.Close() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			s.shutdown()
		case <-s.stopCh:
		}
	}()

	s.logger.Info("session listening", "socket", s.path)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *socketServer) handleConn(conn net.Conn) {
	defer closeWithLog("socket connection", conn)
	if err := writeln(conn, "READY"); err != nil {
		s.logger.Debug("write greeting", "err", err)
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		var reply string
		switch {
		case line == "PING":
			reply = "PONG"
		case line == "SHUTDOWN":
			if err := writeln(conn, "DONE OK CLOSE"); err != nil {
				s.logger.Debug("write shutdown reply", "err", err)
			}
			s.shutdown()
			return
		case strings.HasPrefix(line, "EXEC "):
			done, err := s.exec(conn, strings.TrimPrefix(line, "EXEC "))
			switch {
			case err != nil:
				reply = "DONE ERR " + strings.ReplaceAll(err.Error(), "\n", "\\n")
			case done:
				if err := writeln(conn, "DONE OK CLOSE"); err != nil {
					s.logger.Debug("write reply", "err", err)
				}
				return
			default:
				reply = "DONE OK"
			}
		default:
			reply = "ERR unknown request"
		}
		if err := writeln(conn, reply); err != nil {
			s.logger.Debug("write reply", "err", err)
			return
		}
	}
}

func (s *socketServer) exec(conn net.Conn, command string) (bool, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	s.logger.Debug("exec", "command", command)
	restore := s.session.withIO(nil, &taggedWriter{w: conn, tag: "OUT "}, &taggedWriter{w: conn, tag: "ERR "})
	defer restore()
	return s.session.executeLine(command)
}

func (s *socketServer) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			closeWithLog("socket listener", s.listener)
		}
	})
}
