// Package service controls the external Windows services that hold
// backup sources open. Control is fire-and-confirm: a stop or start
// request is issued once, then the state is polled until it is observed
// or the deadline passes.
package service

import (
	"os/exec"
	"strings"
	"time"

	"github.com/kebairia/fsback/internal/logger"
)

// State is the observed state of a named service.
type State string

const (
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateUnknown  State = "unknown"
	StateNotFound State = "not-found"
)

// DefaultTimeout bounds how long Stop and Start wait for the service
// manager to report the requested state.
const DefaultTimeout = 30 * time.Second

// Commander is the raw service-control boundary. The production
// implementation shells out to `sc`; tests substitute a fake.
type Commander interface {
	Query(name string) State
	RequestStop(name string) error
	RequestStart(name string) error
}

// scCommander drives the Windows service manager through sc.exe.
type scCommander struct{}

func (scCommander) Query(name string) State {
	out, err := exec.Command("sc", "query", name).CombinedOutput()
	text := string(out)
	switch {
	case strings.Contains(text, "RUNNING"):
		return StateRunning
	case strings.Contains(text, "STOPPED"):
		return StateStopped
	case strings.Contains(text, "1060"), strings.Contains(text, "does not exist"):
		// FAILED 1060: the specified service does not exist.
		return StateNotFound
	case err != nil:
		return StateUnknown
	default:
		return StateUnknown
	}
}

func (scCommander) RequestStop(name string) error {
	return exec.Command("sc", "stop", name).Run()
}

func (scCommander) RequestStart(name string) error {
	return exec.Command("sc", "start", name).Run()
}

// Option overrides a Controller default.
type Option func(*Controller)

// WithCommander substitutes the service-control boundary.
func WithCommander(cmd Commander) Option {
	return func(c *Controller) { c.cmd = cmd }
}

// WithPollInterval overrides the one-second poll cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Controller) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller queries, stops and starts named services with bounded
// polling. The poll sleep intentionally blocks the caller: the whole
// engine is sequential and must not copy until the service is down.
type Controller struct {
	cmd      Commander
	interval time.Duration
	log      logger.Logger
}

// NewController returns a Controller backed by `sc` unless overridden.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		cmd:      scCommander{},
		interval: time.Second,
		log:      logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status reports the current observed state of the service.
func (c *Controller) Status(name string) State {
	return c.cmd.Query(name)
}

// Stop brings the service to the stopped state. Already stopped is a
// no-op success; an unknown service name fails immediately. Otherwise a
// single stop request is issued and the state is polled once per
// interval until stopped is observed or timeout elapses. The request is
// never retried within one call.
func (c *Controller) Stop(name string, timeout time.Duration) bool {
	switch c.cmd.Query(name) {
	case StateStopped:
		c.log.Info("service already stopped", "service", name)
		return true
	case StateNotFound:
		c.log.Warn("service not found", "service", name)
		return false
	}
	if err := c.cmd.RequestStop(name); err != nil {
		c.log.Error("stop request failed", "service", name, "error", err)
		return false
	}
	return c.await(name, StateStopped, timeout)
}

// Start is the symmetric operation, polling for the running state.
func (c *Controller) Start(name string, timeout time.Duration) bool {
	switch c.cmd.Query(name) {
	case StateRunning:
		c.log.Info("service already running", "service", name)
		return true
	case StateNotFound:
		c.log.Warn("service not found", "service", name)
		return false
	}
	if err := c.cmd.RequestStart(name); err != nil {
		c.log.Error("start request failed", "service", name, "error", err)
		return false
	}
	return c.await(name, StateRunning, timeout)
}

// await polls until the wanted state is observed or the deadline passes.
func (c *Controller) await(name string, want State, timeout time.Duration) bool {
	attempts := int(timeout / c.interval)
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		time.Sleep(c.interval)
		if c.cmd.Query(name) == want {
			c.log.Info("service reached state", "service", name, "state", want)
			return true
		}
		c.log.Debug("waiting for service",
			"service", name,
			"want", want,
			"attempt", i,
			"of", attempts,
		)
	}
	c.log.Warn("service state timeout", "service", name, "want", want)
	return false
}
