// Package controller supervises the external controller process that the test suite runs
// against: starting it, waiting for it to come up, and tearing down its whole process tree.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alessio/shellescape"
	"github.com/cenkalti/backoff"
	"github.com/shirou/gopsutil/v3/process"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	ErrAlreadyStarted = errors.New("controller process was already started")
	ErrNotStarted     = errors.New("controller process was not started")
	ErrExited         = errors.New("controller process exited")
)

// ReadinessMode selects how AwaitReady decides that the controller is up.
type ReadinessMode string

const (
	// ReadinessSleep waits for the startup delay and nothing else.
	ReadinessSleep ReadinessMode = "sleep"
	// ReadinessPoll waits for the startup delay, then calls the readiness probe until it succeeds.
	ReadinessPoll ReadinessMode = "poll"
)

const (
	DefaultExecutable       = "bash"
	DefaultLauncher         = "../karaf/target/assembly/bin/karaf"
	DefaultLogFile          = "odl.log"
	DefaultStartupDelay     = 90 * time.Second
	DefaultReadinessTimeout = 5 * time.Minute
	DefaultStopTimeout      = 60 * time.Second

	exitPollInterval = 100 * time.Millisecond
	// outputWaitDelay bounds how long Wait keeps copying output once the controller has exited;
	// a descendant that outlives it may hold the pipe open indefinitely.
	outputWaitDelay = 2 * time.Second
	logMaxSizeMB     = 500
	logMaxBackups    = 3
)

// Logger receives progress messages from the supervisor.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Printf(string, ...interface{}) {}

// Options configures a Controller. Zero values take the defaults above, except that Args is only
// defaulted when Executable is too.
type Options struct {
	Executable string
	Args       []string
	Dir        string
	Env        []string

	// LogFile receives the controller's stdout and stderr. The previous file, if any, is kept as a
	// rotated backup.
	LogFile string

	StartupDelay     time.Duration
	Readiness        ReadinessMode
	ReadinessTimeout time.Duration
	// ReadinessProbe is called in ReadinessPoll mode; a nil error means the controller is ready.
	ReadinessProbe func(context.Context) error

	StopTimeout time.Duration
	// StopAttached makes Stop signal a process that was attached to rather than started.
	StopAttached bool
}

// Controller is one supervised controller process.
type Controller struct {
	opts     Options
	logger   Logger
	cmd      *exec.Cmd
	proc     *process.Process
	output   io.WriteCloser
	attached bool
	exited   chan struct{}
	waitErr  error
	stopped  bool
	lock     sync.Mutex
}

func New(opts Options, logger Logger) *Controller {
	if opts.Executable == "" {
		opts.Executable = DefaultExecutable
		if len(opts.Args) == 0 {
			opts.Args = []string{DefaultLauncher}
		}
	}
	if opts.LogFile == "" {
		opts.LogFile = DefaultLogFile
	}
	if opts.Readiness == "" {
		opts.Readiness = ReadinessSleep
	}
	if opts.ReadinessTimeout <= 0 {
		opts.ReadinessTimeout = DefaultReadinessTimeout
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if logger == nil {
		logger = nullLogger{}
	}
	return &Controller{opts: opts, logger: logger}
}

// CommandLine returns the command that Start runs, quoted for a POSIX shell.
func (c *Controller) CommandLine() string {
	var b commandBuilder
	b.add(c.opts.Executable)
	b.add(c.opts.Args...)
	return b.String()
}

// Start launches the controller. Its standard input is the null device.
func (c *Controller) Start(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.proc != nil {
		return ErrAlreadyStarted
	}

	logFile := &lumberjack.Logger{
		Filename:   c.opts.LogFile,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
	}
	if err := logFile.Rotate(); err != nil {
		return fmt.Errorf("could not open controller log file %s: %w", c.opts.LogFile, err)
	}

	cmd := exec.Command(c.opts.Executable, c.opts.Args...)
	cmd.Dir = c.opts.Dir
	if len(c.opts.Env) > 0 {
		cmd.Env = c.opts.Env
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.WaitDelay = outputWaitDelay
	setProcGroupAttr(cmd)

	c.logger.Printf("Starting controller: %s (output in %s)", c.CommandLine(), c.opts.LogFile)
	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("could not start controller: %w", err)
	}
	proc, err := process.NewProcessWithContext(ctx, int32(cmd.Process.Pid))
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		logFile.Close()
		return fmt.Errorf("could not inspect controller process %d: %w", cmd.Process.Pid, err)
	}

	c.cmd = cmd
	c.proc = proc
	c.output = logFile
	c.exited = make(chan struct{})
	go c.awaitExit(cmd)
	c.logger.Printf("Controller started with PID %d", cmd.Process.Pid)
	return nil
}

func (c *Controller) awaitExit(cmd *exec.Cmd) {
	err := cmd.Wait()
	c.lock.Lock()
	c.waitErr = err
	stopped := c.stopped
	c.lock.Unlock()
	if !stopped {
		c.logger.Printf("Controller exited unexpectedly: %v", exitDescription(err))
	}
	close(c.exited)
}

// Attach supervises a controller that is already running instead of starting one.
func (c *Controller) Attach(ctx context.Context, pid int) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.proc != nil {
		return ErrAlreadyStarted
	}
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("no controller process with PID %d: %w", pid, err)
	}
	c.proc = proc
	c.attached = true
	c.logger.Printf("Attached to controller with PID %d", pid)
	return nil
}

// PID returns the process ID of the controller, or 0 if there is none yet.
func (c *Controller) PID() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.proc == nil {
		return 0
	}
	return int(c.proc.Pid)
}

// Exited is closed when a started controller process exits. For an attached controller it is nil.
func (c *Controller) Exited() <-chan struct{} {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.exited
}

// AwaitReady blocks until the controller is considered ready. It fails early if the started
// process exits or ctx is cancelled.
func (c *Controller) AwaitReady(ctx context.Context) error {
	exited := c.Exited()
	if c.PID() == 0 {
		return ErrNotStarted
	}

	if c.opts.StartupDelay > 0 {
		c.logger.Printf("Waiting %s for the controller to initialize", c.opts.StartupDelay)
		timer := time.NewTimer(c.opts.StartupDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-exited:
			return c.exitError()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if c.opts.Readiness != ReadinessPoll || c.opts.ReadinessProbe == nil {
		return nil
	}

	c.logger.Printf("Polling the controller for readiness (timeout %s)", c.opts.ReadinessTimeout)
	pollCtx, cancel := context.WithTimeout(ctx, c.opts.ReadinessTimeout)
	defer cancel()
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = c.opts.ReadinessTimeout
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		select {
		case <-exited:
			return nil // checked again below
		default:
		}
		return c.opts.ReadinessProbe(pollCtx)
	}, backoff.WithContext(b, pollCtx), func(err error, next time.Duration) {
		c.logger.Printf("Controller not ready yet (attempt %d): %s; retrying in %s", attempts, err, next)
	})
	select {
	case <-exited:
		return c.exitError()
	default:
	}
	if err != nil {
		return fmt.Errorf("controller did not become ready after %d attempts: %w", attempts, err)
	}
	c.logger.Printf("Controller is ready")
	return nil
}

func (c *Controller) exitError() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return fmt.Errorf("%w during startup: %s", ErrExited, exitDescription(c.waitErr))
}

// Stop interrupts every direct child of the controller and waits for each to exit, then does the
// same for the controller itself. Anything still running after the stop timeout is killed.
func (c *Controller) Stop(ctx context.Context) error {
	c.lock.Lock()
	proc, exited, attached := c.proc, c.exited, c.attached
	if proc == nil {
		c.lock.Unlock()
		return ErrNotStarted
	}
	if c.stopped {
		c.lock.Unlock()
		return nil
	}
	c.stopped = true
	c.lock.Unlock()

	defer c.closeOutput()

	if attached && !c.opts.StopAttached {
		c.logger.Printf("Leaving attached controller (PID %d) running", proc.Pid)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.StopTimeout)
	defer cancel()

	var errs []error
	children, err := proc.ChildrenWithContext(ctx)
	if err != nil && !errors.Is(err, process.ErrorNoChildren) {
		c.logger.Printf("Could not list children of controller process %d: %s", proc.Pid, err)
	}
	for _, child := range children {
		if err := c.interruptAndWait(ctx, child, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.interruptAndWait(ctx, proc, exited); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Controller) interruptAndWait(ctx context.Context, p *process.Process, exited <-chan struct{}) error {
	c.logger.Printf("Sending SIGINT to process %d", p.Pid)
	if err := p.SendSignalWithContext(ctx, syscall.SIGINT); err != nil {
		if gone(ctx, p, exited) {
			return nil
		}
		return fmt.Errorf("could not interrupt process %d: %w", p.Pid, err)
	}

	ticker := time.NewTicker(exitPollInterval)
	defer ticker.Stop()
	for {
		if gone(ctx, p, exited) {
			c.logger.Printf("Process %d exited", p.Pid)
			return nil
		}
		select {
		case <-exited:
		case <-ticker.C:
		case <-ctx.Done():
			c.logger.Printf("Process %d did not exit in time; killing it", p.Pid)
			if err := p.Kill(); err != nil && !gone(context.Background(), p, exited) {
				return fmt.Errorf("could not kill process %d: %w", p.Pid, err)
			}
			return nil
		}
	}
}

// gone reports whether a process has exited. A zombie counts as exited; for a process we started
// ourselves the exited channel is authoritative.
func gone(ctx context.Context, p *process.Process, exited <-chan struct{}) bool {
	if exited != nil {
		select {
		case <-exited:
			return true
		default:
			return false
		}
	}
	running, err := p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return true
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		return false
	}
	for _, s := range status {
		if s == process.Zombie {
			return true
		}
	}
	return false
}

func (c *Controller) closeOutput() {
	c.lock.Lock()
	out := c.output
	c.output = nil
	c.lock.Unlock()
	if out != nil {
		_ = out.Close()
	}
}

func exitDescription(err error) string {
	if err == nil {
		return "exit status 0"
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		return "exit status 0 (output still held open by a descendant)"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "exit status " + strconv.Itoa(exitErr.ExitCode())
	}
	return err.Error()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
