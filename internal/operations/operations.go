// Package operations implements the backup and restore orchestrators.
// Both walk their work items strictly sequentially, convert every
// per-item failure into a counted outcome, and only treat missing
// configuration or a declined confirmation as fatal.
package operations

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kebairia/fsback/internal/config"
	"github.com/kebairia/fsback/internal/logger"
	"github.com/kebairia/fsback/internal/service"
)

var (
	// ErrNoPathsRegistered indicates a backup was requested with an
	// empty registration store.
	ErrNoPathsRegistered = errors.New("no backup paths registered")
	// ErrNoLedger indicates the restore path holds no ledger file.
	ErrNoLedger = errors.New("backup metadata not found")
	// ErrTargetNotFound indicates the selected folder name matches no
	// ledger record.
	ErrTargetNotFound = errors.New("backup item not found")
	// ErrRestoreCancelled indicates the user declined the confirmation.
	ErrRestoreCancelled = errors.New("restore cancelled")
)

// Summary aggregates per-item outcomes for one run.
type Summary struct {
	Succeeded int
	Failed    int
}

// Operator coordinates the registration store, the service controller,
// the copy engine and the ledger for one backup or restore invocation.
type Operator struct {
	store          *config.Store
	services       *service.Controller
	confirm        func(prompt string) bool
	serviceTimeout time.Duration
	out            io.Writer
	log            logger.Logger
}

// Option overrides an Operator default.
type Option func(*Operator)

// WithServiceController substitutes the service controller.
func WithServiceController(ctl *service.Controller) Option {
	return func(o *Operator) { o.services = ctl }
}

// WithConfirm substitutes the interactive confirmation capability.
func WithConfirm(confirm func(prompt string) bool) Option {
	return func(o *Operator) { o.confirm = confirm }
}

// WithServiceTimeout overrides the stop/start deadline.
func WithServiceTimeout(timeout time.Duration) Option {
	return func(o *Operator) {
		if timeout > 0 {
			o.serviceTimeout = timeout
		}
	}
}

// WithOutput redirects the user-facing narration.
func WithOutput(w io.Writer) Option {
	return func(o *Operator) { o.out = w }
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Operator) { o.log = log }
}

// NewOperator builds an Operator over a loaded registration store.
func NewOperator(store *config.Store, opts ...Option) *Operator {
	op := &Operator{
		store:          store,
		services:       service.NewController(),
		confirm:        PromptConfirm(os.Stdin, os.Stdout),
		serviceTimeout: service.DefaultTimeout,
		out:            os.Stdout,
		log:            logger.Global(),
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// PromptConfirm returns a confirmation capability that prints the prompt
// to w and accepts a leading "y" or "Y" read from r.
func PromptConfirm(r io.Reader, w io.Writer) func(prompt string) bool {
	reader := bufio.NewReader(r)
	return func(prompt string) bool {
		fmt.Fprintf(w, "%s (y/n): ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
	}
}

// Narration colors for the per-item progress lines.
var (
	headLine = color.New(color.Bold)
	okLine   = color.New(color.FgGreen)
	failLine = color.New(color.FgRed)
	skipLine = color.New(color.FgYellow)
	warnLine = color.New(color.FgYellow, color.Bold)
)

func (op *Operator) printSummary(s Summary) {
	headLine.Fprintf(op.out, "succeeded: %d, failed: %d\n", s.Succeeded, s.Failed)
}
