// Package uci drives one external UCI chess engine process over its
// line-oriented text protocol: handshake, option and position commands,
// and synchronous searches with a response deadline.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrTimeout means the engine did not produce an expected response
	// line within the deadline. It is fatal for the process: after a
	// timeout the engine is in an undefined state, gets killed, and every
	// later call on the client fails until a new client is started.
	ErrTimeout = errors.New("uci: timed out waiting for engine")
	// ErrClosed means the engine process ended or the client was shut down.
	ErrClosed = errors.New("uci: engine closed")
)

// MateScore is the saturating centipawn equivalent of a forced mate, so
// mate announcements stay comparable with ordinary centipawn scores.
const MateScore = 100000

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultSearchTimeout    = 10 * time.Second
)

// Config configures one engine client. Exactly one of Depth and MoveTime
// must be set; it selects the search mode for every Search call.
type Config struct {
	Path             string
	Args             []string
	Depth            int
	MoveTime         time.Duration
	HandshakeTimeout time.Duration
	SearchTimeout    time.Duration
	Logger           zerolog.Logger
}

func (cfg *Config) applyDefaults() {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}
}

func (cfg *Config) validate() error {
	if cfg.Depth > 0 && cfg.MoveTime > 0 {
		return errors.New("uci: depth and movetime are mutually exclusive")
	}
	if cfg.Depth <= 0 && cfg.MoveTime <= 0 {
		return errors.New("uci: either depth or movetime must be set")
	}
	return nil
}

// Result is the outcome of one search request.
type Result struct {
	// CP is the latest score seen, in centipawns from the side to move's
	// perspective. Mate announcements are saturated to +-MateScore.
	CP int
	// Mate is the announced distance to mate when HasMate is true.
	Mate    int
	HasMate bool
	// BestMove is the engine's recommended move in UCI notation.
	BestMove string
}

// Client is a synchronous driver for one engine process. It is meant to
// be used from a single goroutine: one request at a time, the caller
// blocks until the response or the deadline.
type Client struct {
	cfg    Config
	log    zerolog.Logger
	proc   *exec.Cmd
	stdin  io.Writer
	lines  <-chan string
	fatal  error
	closed bool
}

// Start launches the engine process and performs the UCI handshake. On
// any failure the process is torn down and an error returned; a client is
// only ever handed out in the Ready state.
func Start(cfg Config) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cmd := exec.Command(cfg.Path, cfg.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uci: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("uci: start %s: %w", cfg.Path, err)
	}

	c := newClient(cfg, stdin, stdout)
	c.proc = cmd
	if err := c.handshake(); err != nil {
		c.Quit()
		return nil, err
	}
	return c, nil
}

// newClient wires a client over raw reader/writer endpoints. Tests use it
// to talk to a scripted fake engine instead of a real process.
func newClient(cfg Config, stdin io.Writer, stdout io.Reader) *Client {
	return &Client{
		cfg:   cfg,
		log:   cfg.Logger,
		stdin: stdin,
		lines: readLines(stdout),
	}
}

// readLines pumps engine output into a channel so waiting for a line with
// a deadline is a select, not a polling loop.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (c *Client) handshake() error {
	if err := c.send("uci"); err != nil {
		return err
	}
	if _, err := c.readUntil("uciok", c.cfg.HandshakeTimeout); err != nil {
		return c.fail(fmt.Errorf("handshake: %w", err))
	}
	if err := c.send("isready"); err != nil {
		return err
	}
	if _, err := c.readUntil("readyok", c.cfg.HandshakeTimeout); err != nil {
		return c.fail(fmt.Errorf("handshake: %w", err))
	}
	c.log.Debug().Str("engine", c.cfg.Path).Msg("engine ready")
	return nil
}

// SetOption configures an engine option. Fire and forget: the protocol
// defines no response.
func (c *Client) SetOption(name, value string) error {
	return c.send(fmt.Sprintf("setoption name %s value %s", name, value))
}

// NewGame tells the engine the next positions belong to a new game and
// waits for it to settle.
func (c *Client) NewGame() error {
	if err := c.send("ucinewgame"); err != nil {
		return err
	}
	if err := c.send("isready"); err != nil {
		return err
	}
	if _, err := c.readUntil("readyok", c.cfg.HandshakeTimeout); err != nil {
		return c.fail(fmt.Errorf("ucinewgame: %w", err))
	}
	return nil
}

// SetPosition sets the position the next Search will analyze, as a FEN
// plus optional further moves in UCI notation. Fire and forget.
func (c *Client) SetPosition(fen string, moves ...string) error {
	cmd := "position fen " + fen
	if len(moves) > 0 {
		cmd += " moves " + strings.Join(moves, " ")
	}
	return c.send(cmd)
}

// Search runs one search in the configured mode (fixed depth or fixed
// movetime) and blocks until the engine's bestmove line or the deadline.
// Progress lines are parsed as they arrive and the latest score wins.
func (c *Client) Search() (Result, error) {
	var cmd string
	if c.cfg.MoveTime > 0 {
		cmd = fmt.Sprintf("go movetime %d", c.cfg.MoveTime.Milliseconds())
	} else {
		cmd = fmt.Sprintf("go depth %d", c.cfg.Depth)
	}
	if err := c.send(cmd); err != nil {
		return Result{}, err
	}

	lines, err := c.readUntil("bestmove", c.cfg.SearchTimeout)
	if err != nil {
		return Result{}, c.fail(fmt.Errorf("search: %w", err))
	}

	result := parseSearchOutput(lines)
	c.log.Debug().
		Int("cp", result.CP).
		Str("bestmove", result.BestMove).
		Msg("search complete")
	return result, nil
}

// Evaluate scores a position: SetPosition followed by Search, returning
// the centipawn score from the perspective of the side to move in fen.
func (c *Client) Evaluate(fen string) (int, error) {
	if err := c.SetPosition(fen); err != nil {
		return 0, err
	}
	result, err := c.Search()
	if err != nil {
		return 0, err
	}
	return result.CP, nil
}

// Quit shuts the engine down. Idempotent and safe from any state; errors
// from an already-dead process are swallowed.
func (c *Client) Quit() {
	if c.closed {
		return
	}
	c.closed = true

	fmt.Fprintln(c.stdin, "quit")
	if closer, ok := c.stdin.(io.Closer); ok {
		closer.Close()
	}
	c.terminate()
}

func (c *Client) send(cmd string) error {
	if err := c.usable(); err != nil {
		return err
	}
	c.log.Trace().Str("command", cmd).Msg("engine command")
	if _, err := fmt.Fprintf(c.stdin, "%s\n", cmd); err != nil {
		return c.fail(fmt.Errorf("write %q: %w", cmd, err))
	}
	return nil
}

// readUntil collects output lines until one starts with prefix. Hitting
// the deadline returns ErrTimeout; the engine closing its output returns
// ErrClosed.
func (c *Client) readUntil(prefix string, timeout time.Duration) ([]string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var lines []string
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return lines, fmt.Errorf("output ended before %q: %w", prefix, ErrClosed)
			}
			lines = append(lines, line)
			if strings.HasPrefix(line, prefix) {
				return lines, nil
			}
		case <-timer.C:
			return lines, fmt.Errorf("no %q within %s: %w", prefix, timeout, ErrTimeout)
		}
	}
}

func (c *Client) usable() error {
	if c.fatal != nil {
		return fmt.Errorf("engine unusable after earlier failure: %w", c.fatal)
	}
	if c.closed {
		return ErrClosed
	}
	return nil
}

// fail records a fatal error and kills the process. The client stays
// constructed but refuses all further work; recovery means starting a new
// client.
func (c *Client) fail(err error) error {
	if c.fatal == nil {
		c.fatal = err
		c.log.Error().Err(err).Msg("engine failed")
		c.terminate()
	}
	return err
}

func (c *Client) terminate() {
	if c.proc != nil && c.proc.Process != nil {
		c.proc.Process.Kill()
		c.proc.Wait()
		c.proc = nil
	}
	// Nobody will read engine output anymore; drain the channel so the
	// pump goroutine can reach EOF and exit instead of blocking on send.
	go func() {
		for range c.lines {
		}
	}()
}
