// Package probe answers read-only questions about live host state. Probes
// never mutate the host and are cheap enough to repeat after every
// corrective action.
package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/alexisbeaulieu97/deployerra/internal/config"
	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
)

// Findings is one snapshot of the four capability probes. A snapshot is only
// valid until the next mutating action.
type Findings struct {
	RuntimeInstalled bool
	ServiceActive    bool
	UserAuthorized   bool
	ComposeInstalled bool
}

// Complete reports whether the host needs no corrective action.
func (f Findings) Complete() bool {
	return f.RuntimeInstalled && f.ServiceActive && f.UserAuthorized && f.ComposeInstalled
}

// ArchDetector returns the host machine architecture in uname -m form.
type ArchDetector func(ctx context.Context) (string, error)

// KernelArch reads the machine architecture through gopsutil.
func KernelArch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return host.KernelArch()
}

// Prober runs the capability probes through a hostexec.Runner.
type Prober struct {
	runner  hostexec.Runner
	runtime config.Runtime
	arch    ArchDetector
	log     *logger.Logger
}

// Option customises a Prober.
type Option func(*Prober)

// WithArchDetector replaces the gopsutil architecture lookup.
func WithArchDetector(fn ArchDetector) Option {
	return func(p *Prober) { p.arch = fn }
}

// New returns a Prober for the given runtime.
func New(runner hostexec.Runner, rt config.Runtime, log *logger.Logger, opts ...Option) *Prober {
	p := &Prober{runner: runner, runtime: rt, arch: KernelArch, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RuntimeInstalled is true iff the runtime executable resolves on the search path.
func (p *Prober) RuntimeInstalled(ctx context.Context) bool {
	return p.succeeds(ctx, "runtime-installed", "command -v "+p.runtime.Binary)
}

// ServiceActive is true iff the service manager reports the unit as "active".
func (p *Prober) ServiceActive(ctx context.Context) bool {
	res, err := p.runner.Run(ctx, "systemctl is-active "+p.runtime.Service)
	active := err == nil && strings.TrimSpace(res.Stdout) == "active"
	p.record("service-active", active)
	return active
}

// UserAuthorized is true iff user's group list already names the runtime group.
func (p *Prober) UserAuthorized(ctx context.Context, user string) bool {
	if user == "" {
		p.record("user-authorized", false)
		return false
	}
	res, err := p.runner.Run(ctx, "groups "+ShellQuote(user))
	authorized := err == nil && res.Success() && HasGroup(res.Stdout, p.runtime.Group)
	p.record("user-authorized", authorized)
	return authorized
}

// ComposeInstalled is true iff the runtime's command listing mentions compose.
func (p *Prober) ComposeInstalled(ctx context.Context) bool {
	res, err := p.runner.Run(ctx, p.runtime.Binary+" help")
	installed := err == nil && res.Success() && strings.Contains(res.Stdout, "compose")
	p.record("compose-installed", installed)
	return installed
}

// CurrentUser resolves the invoking identity.
func (p *Prober) CurrentUser(ctx context.Context) (string, error) {
	res, err := p.runner.Run(ctx, "whoami")
	if err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	if !res.Success() {
		return "", fmt.Errorf("whoami exited %d: %s", res.ExitCode, hostexec.PrimaryOutput(res))
	}
	user := strings.TrimSpace(res.Stdout)
	if user == "" {
		return "", fmt.Errorf("whoami returned no user name")
	}
	return user, nil
}

// Architecture detects the machine architecture, falling back to uname -m
// when the gopsutil lookup yields nothing.
func (p *Prober) Architecture(ctx context.Context) (string, error) {
	if p.arch != nil {
		arch, err := p.arch(ctx)
		if err == nil && strings.TrimSpace(arch) != "" {
			return strings.TrimSpace(arch), nil
		}
		p.log.WithFields(map[string]any{"error": fmt.Sprint(err)}).Debug("architecture lookup failed, falling back to uname")
	}

	res, err := p.runner.Run(ctx, "uname -m")
	if err != nil {
		return "", fmt.Errorf("uname -m: %w", err)
	}
	arch := strings.TrimSpace(res.Stdout)
	if !res.Success() || arch == "" {
		return "", fmt.Errorf("uname -m exited %d without an architecture", res.ExitCode)
	}
	return arch, nil
}

// Snapshot runs all four probes for user in order.
func (p *Prober) Snapshot(ctx context.Context, user string) Findings {
	return Findings{
		RuntimeInstalled: p.RuntimeInstalled(ctx),
		ServiceActive:    p.ServiceActive(ctx),
		UserAuthorized:   p.UserAuthorized(ctx, user),
		ComposeInstalled: p.ComposeInstalled(ctx),
	}
}

func (p *Prober) succeeds(ctx context.Context, name, command string) bool {
	res, err := p.runner.Run(ctx, command)
	ok := err == nil && res.Success()
	p.record(name, ok)
	return ok
}

func (p *Prober) record(name string, value bool) {
	p.log.WithFields(map[string]any{"probe": name, "result": value}).Debug("capability probed")
}

// HasGroup reports whether output from groups(1) lists group. Both the
// "user : g1 g2" and the bare "g1 g2" forms are accepted.
func HasGroup(output, group string) bool {
	if _, after, found := strings.Cut(output, ":"); found {
		output = after
	}
	for _, g := range strings.Fields(output) {
		if g == group {
			return true
		}
	}
	return false
}

// ShellQuote wraps s in single quotes for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
