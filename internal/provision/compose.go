package provision

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/deployerra/internal/config"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// composePipeline creates the plugin directory, downloads the binary and
// marks it executable. curl -f makes HTTP errors fail the pipeline.
func composePipeline(c config.Compose, url string) string {
	dir := probe.ShellQuote(c.PluginDir)
	dest := probe.ShellQuote(c.PluginPath())
	return fmt.Sprintf("sudo mkdir -p %s && sudo curl -fsSL %s -o %s && sudo chmod +x %s",
		dir, probe.ShellQuote(url), dest, dest)
}

// reconcileCompose runs after either runtime sub-flow, including one that
// halted on a fatal error. Success is decided by re-probing, never by the
// pipeline's exit status alone.
func (e *Executor) reconcileCompose(ctx context.Context, out *Outcome) {
	bin := e.cfg.Runtime.Binary
	e.printer.Step("checking for %s compose", bin)
	if e.prober.ComposeInstalled(ctx) {
		e.printer.Info("%s compose found", bin)
		return
	}
	e.printer.Info("%s compose not found", bin)
	e.printer.Step("proceeding to install %s compose", bin)

	arch, err := e.prober.Architecture(ctx)
	if err != nil {
		e.fatal(out, ActionDetectArchitecture, "uname -m", deperrors.ArchitectureDetectionFailed, err,
			"failed to detect system architecture")
		return
	}
	e.succeeded(out, ActionDetectArchitecture, "", arch)

	url := e.cfg.Compose.DownloadURL(arch)
	pipeline := composePipeline(e.cfg.Compose, url)
	e.printer.Step("downloading %s compose from %s", bin, url)
	if _, err := e.execute(ctx, ActionInstallCompose, pipeline); err != nil {
		e.reported(out, ActionInstallCompose, pipeline, deperrors.ComposePluginInstallFailed, err,
			"failed to install "+bin+" compose")
		return
	}
	e.succeeded(out, ActionInstallCompose, pipeline, url)

	if !e.prober.ComposeInstalled(ctx) {
		e.reported(out, ActionVerifyCompose, bin+" help", deperrors.ComposePluginInstallFailed,
			fmt.Errorf("plugin not detected at %s after installation", e.cfg.Compose.PluginPath()),
			bin+" compose installation verification failed")
		return
	}
	e.succeeded(out, ActionVerifyCompose, bin+" help", "")
	e.printer.Success("%s compose installed successfully", bin)
}
