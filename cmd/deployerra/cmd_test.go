package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
)

const sudoProbe = "sudo -n true"

func testApp(runner *hostexectest.Runner) *AppContext {
	return &AppContext{
		NewRunner: func(time.Duration, *logger.Logger, io.Writer, io.Writer) hostexec.Runner {
			return runner
		},
		ArchDetector: func(context.Context) (string, error) { return "x86_64", nil },
		ReadPassword: func(string, io.Writer) (string, error) { return "", errors.New("no terminal") },
		IsTerminal:   func(io.Writer) bool { return false },
	}
}

// writeProfile points the classifier at a fake os-release file.
func writeProfile(t *testing.T, osRelease string, extra string) string {
	t.Helper()

	dir := t.TempDir()
	osPath := filepath.Join(dir, "os-release")
	sysPath := filepath.Join(dir, "system-release")
	require.NoError(t, os.WriteFile(osPath, []byte(osRelease), 0o644))
	require.NoError(t, os.WriteFile(sysPath, []byte("Amazon Linux release 2023 (Amazon Linux)\n"), 0o644))

	profile := "os_release_path: " + osPath + "\nsystem_release_path: " + sysPath + "\n" + extra
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))
	return path
}

func ubuntuProfile(t *testing.T) string {
	return writeProfile(t, "NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n", "")
}

func provisionedHost() *hostexectest.Runner {
	return hostexectest.New().
		On(sudoProbe, hostexectest.OK("")).
		On("command -v docker", hostexectest.OK("/usr/bin/docker")).
		On("systemctl is-active docker", hostexectest.OK("active")).
		On("whoami", hostexectest.OK("alice")).
		On("groups 'alice'", hostexectest.OK("alice : alice docker")).
		On("docker help", hostexectest.OK("Commands:\n  compose*  Docker Compose"))
}

func runCLI(app *AppContext, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr, app)
	return code, stdout.String(), stderr.String()
}

func TestRootWithoutSubcommandPrintsUsage(t *testing.T) {
	code, stdout, _ := runCLI(testApp(hostexectest.New()))

	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Deploy smarter. Deploy better.")
	assert.Contains(t, stdout, "No command was provided")
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "setup")
}

func TestQuietSuppressesBanner(t *testing.T) {
	code, stdout, _ := runCLI(testApp(hostexectest.New()), "--quiet")

	require.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "Deploy smarter")
}

func TestSetupOnProvisionedHostChangesNothing(t *testing.T) {
	runner := provisionedHost()
	code, stdout, stderr := runCLI(testApp(runner), "setup", "-q", "--config", ubuntuProfile(t))

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "sudo access confirmed")
	assert.Contains(t, stdout, "supported distro detected: ubuntu")
	assert.Contains(t, stdout, "server setup complete")
	for _, call := range runner.Calls() {
		assert.False(t, call.Stream, call.Command)
	}
	assert.Equal(t, sudoProbe, runner.Commands()[0])
}

func TestSetupDeniedPrivilegeStopsBeforeProbing(t *testing.T) {
	runner := provisionedHost().Set(sudoProbe, hostexectest.Exit(1, "Sorry, user alice may not run sudo on host."))
	code, _, stderr := runCLI(testApp(runner), "setup", "--config", ubuntuProfile(t))

	require.Equal(t, exitPrivilege, code)
	assert.Contains(t, stderr, "may not use sudo")
	assert.Equal(t, []string{sudoProbe}, runner.Commands())
}

func TestSetupRequiresPasswordWithoutCredential(t *testing.T) {
	runner := provisionedHost().Set(sudoProbe, hostexectest.Exit(1, "sudo: a password is required"))
	code, _, stderr := runCLI(testApp(runner), "setup", "--config", ubuntuProfile(t))

	require.Equal(t, exitPrivilege, code)
	assert.Contains(t, stderr, "--password")
	assert.Equal(t, []string{sudoProbe}, runner.Commands())
}

func TestSetupAuthenticatesWithPasswordFlag(t *testing.T) {
	runner := provisionedHost().
		Set(sudoProbe, hostexectest.Exit(1, "sudo: a password is required"), hostexectest.OK("")).
		On("sudo -S -p '' -v", hostexectest.OK(""))
	code, stdout, stderr := runCLI(testApp(runner), "setup", "-p", "s3cret", "--config", ubuntuProfile(t))

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "using provided password for sudo access")

	var auth *hostexectest.Call
	for _, call := range runner.Calls() {
		if call.Command == "sudo -S -p '' -v" {
			c := call
			auth = &c
		}
	}
	require.NotNil(t, auth)
	assert.Equal(t, "s3cret\n", auth.Stdin)
	assert.NotContains(t, strings.Join(runner.Commands(), "\n"), "s3cret")
}

func TestSetupRejectedPasswordIsPrivilegeError(t *testing.T) {
	runner := provisionedHost().
		Set(sudoProbe, hostexectest.Exit(1, "sudo: a password is required")).
		On("sudo -S -p '' -v", hostexectest.Exit(1, "Sorry, try again."))
	code, _, _ := runCLI(testApp(runner), "setup", "--password", "wrong", "--config", ubuntuProfile(t))

	require.Equal(t, exitPrivilege, code)
	assert.False(t, runner.Ran("command -v"))
}

func TestSetupAskPasswordPrompts(t *testing.T) {
	runner := provisionedHost().
		Set(sudoProbe,
			hostexectest.Exit(1, "sudo: a password is required"),
			hostexectest.Exit(1, "sudo: a password is required"),
			hostexectest.OK(""),
		).
		On("sudo -S -p '' -v", hostexectest.OK(""))
	app := testApp(runner)
	prompted := false
	app.ReadPassword = func(prompt string, _ io.Writer) (string, error) {
		prompted = true
		return "hunter2", nil
	}

	code, _, stderr := runCLI(app, "setup", "--ask-password", "--config", ubuntuProfile(t))

	require.Equal(t, exitOK, code, stderr)
	assert.True(t, prompted)
}

func TestSetupPasswordFlagsAreExclusive(t *testing.T) {
	code, _, stderr := runCLI(testApp(provisionedHost()), "setup", "-p", "x", "--ask-password")

	require.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "ask-password")
}

func TestSetupUnsupportedDistro(t *testing.T) {
	runner := provisionedHost()
	profile := writeProfile(t, "ID=gentoo\n", "")
	code, _, stderr := runCLI(testApp(runner), "setup", "--config", profile)

	require.Equal(t, exitClassification, code)
	assert.Contains(t, stderr, "unsupported distro: gentoo")
	assert.Equal(t, []string{sudoProbe}, runner.Commands())
}

func TestSetupMissingIdentity(t *testing.T) {
	profile := writeProfile(t, "NAME=\"Mystery\"\n", "")
	code, _, _ := runCLI(testApp(provisionedHost()), "setup", "--config", profile)

	require.Equal(t, exitClassification, code)
}

func TestSetupInvalidProfile(t *testing.T) {
	runner := provisionedHost()
	profile := writeProfile(t, "ID=ubuntu\n", "compose:\n  version: banana\n")
	code, _, stderr := runCLI(testApp(runner), "setup", "--config", profile)

	require.Equal(t, exitConfig, code)
	assert.Contains(t, stderr, "compose.version")
	assert.Empty(t, runner.Calls())
}

func TestSetupDryRunMutatesNothing(t *testing.T) {
	runner := hostexectest.New().
		On(sudoProbe, hostexectest.OK("")).
		On("command -v docker", hostexectest.Exit(1, "")).
		On("whoami", hostexectest.OK("alice")).
		On("docker help", hostexectest.Exit(127, "docker: not found"))
	code, stdout, stderr := runCLI(testApp(runner), "setup", "--dry-run", "--config", ubuntuProfile(t))

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "install-runtime")
	assert.Contains(t, stdout, "sudo apt-get install -y docker.io")
	for _, call := range runner.Calls() {
		assert.False(t, call.Stream, call.Command)
		if call.Command != sudoProbe {
			assert.NotContains(t, call.Command, "sudo", call.Command)
		}
	}
}

func TestSetupReportsNonFatalFailures(t *testing.T) {
	// the compose pipeline is unscripted and therefore fails
	runner := provisionedHost().Set("docker help", hostexectest.OK("Usage: docker"))
	code, _, stderr := runCLI(testApp(runner), "setup", "--config", ubuntuProfile(t))

	require.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "ComposePluginInstallFailed")
}

func TestSetupRejectsUnknownLogFormat(t *testing.T) {
	code, _, stderr := runCLI(testApp(provisionedHost()), "setup", "--log-format", "xml")

	require.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown log format")
}

func TestCheckIsReadOnly(t *testing.T) {
	runner := provisionedHost().Set("docker help", hostexectest.OK("Usage: docker"))
	code, stdout, _ := runCLI(testApp(runner), "check", "--config", ubuntuProfile(t))

	require.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "docker compose installed")
	for _, cmd := range runner.Commands() {
		assert.NotContains(t, cmd, "sudo")
	}
}

func TestCheckProvisionedHost(t *testing.T) {
	code, stdout, stderr := runCLI(testApp(provisionedHost()), "check", "--config", ubuntuProfile(t))

	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "alice in the docker group")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitFailure, exitCode(errNotProvisioned))
}
