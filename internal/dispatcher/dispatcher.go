// Package dispatcher binds entry-point names to subprocess commands and
// invokes them in a run directory.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrUnknownEntryPoint is returned by Run when name has no bound command.
var ErrUnknownEntryPoint = errors.New("dispatcher: unknown entry point")

// EntryPoint is a single bound command: the executable and its fixed leading
// arguments, before the per-invocation input/output paths are appended.
type EntryPoint struct {
	Command []string
}

// Dispatcher resolves entry-point names to subprocess invocations within a
// fixed run directory.
type Dispatcher struct {
	runDir      string
	entryPoints map[string]EntryPoint
}

// New returns a Dispatcher rooted at runDir with the given entry-point table.
func New(runDir string, entryPoints map[string]EntryPoint) *Dispatcher {
	return &Dispatcher{runDir: runDir, entryPoints: entryPoints}
}

// Run resolves name in the entry-point table and spawns the associated
// command as a subprocess in the run directory, appending args, waiting for
// completion.
func (d *Dispatcher) Run(ctx context.Context, name string, args ...string) error {
	ep, ok := d.entryPoints[name]
	if !ok || len(ep.Command) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownEntryPoint, name)
	}

	cmdArgs := append(append([]string{}, ep.Command[1:]...), args...)
	cmd := exec.CommandContext(ctx, ep.Command[0], cmdArgs...)
	cmd.Dir = d.runDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("entry point %q failed: %w: %s", name, err, string(out))
	}
	return nil
}

// Has reports whether name is bound in the entry-point table.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.entryPoints[name]
	return ok
}
