package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const (
	// LatestComposeVersion selects the newest compose release.
	LatestComposeVersion = "latest"
	// ComposeBinaryName is the file name the runtime's plugin discovery expects.
	ComposeBinaryName = "docker-compose"
)

// Config is the provisioning profile. Every field has a built-in default;
// a YAML profile only needs to name what it overrides.
type Config struct {
	OSReleasePath     string                      `yaml:"os_release_path" validate:"required,abs_path"`
	SystemReleasePath string                      `yaml:"system_release_path" validate:"required,abs_path"`
	CommandTimeout    time.Duration               `yaml:"command_timeout" validate:"gte=0"`
	Runtime           Runtime                     `yaml:"runtime"`
	Compose           Compose                     `yaml:"compose"`
	Platforms         map[string]PlatformCommands `yaml:"platforms,omitempty" validate:"omitempty,dive,keys,oneof=debian redhat amazon arch,endkeys"`
}

// Runtime names the container engine being provisioned.
type Runtime struct {
	Binary  string `yaml:"binary" validate:"required,shell_word"`
	Service string `yaml:"service" validate:"required,shell_word"`
	Group   string `yaml:"group" validate:"required,shell_word"`
}

// Compose describes where the compose plugin comes from and where it goes.
type Compose struct {
	Version     string `yaml:"version" validate:"required,compose_version"`
	PluginDir   string `yaml:"plugin_dir" validate:"required,abs_path"`
	URLTemplate string `yaml:"url_template" validate:"required,url_template"`
}

// PlatformCommands overrides the built-in command templates of one platform family.
type PlatformCommands struct {
	Refresh     string            `yaml:"refresh,omitempty"`
	Install     string            `yaml:"install,omitempty"`
	InstallByID map[string]string `yaml:"install_by_id,omitempty"`
	Variants    []Variant         `yaml:"variants,omitempty" validate:"omitempty,dive"`
}

// Variant selects an install command when the release descriptor contains Marker.
type Variant struct {
	Marker  string `yaml:"marker" validate:"required"`
	Install string `yaml:"install" validate:"required"`
}

// Default returns the built-in profile.
func Default() *Config {
	return &Config{
		OSReleasePath:     "/etc/os-release",
		SystemReleasePath: "/etc/system-release",
		Runtime: Runtime{
			Binary:  "docker",
			Service: "docker",
			Group:   "docker",
		},
		Compose: Compose{
			Version:     LatestComposeVersion,
			PluginDir:   "/usr/local/lib/docker/cli-plugins",
			URLTemplate: "https://github.com/docker/compose/releases/{release}/docker-compose-linux-{arch}",
		},
	}
}

// ReleasePath returns the release segment of the download URL.
func (c Compose) ReleasePath() string {
	if c.Version == "" || strings.EqualFold(c.Version, LatestComposeVersion) {
		return "latest/download"
	}
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return "download/" + c.Version
	}
	return "download/v" + v.String()
}

// DownloadURL expands the URL template for the given machine architecture.
func (c Compose) DownloadURL(arch string) string {
	return strings.NewReplacer(
		"{release}", c.ReleasePath(),
		"{version}", c.Version,
		"{arch}", arch,
	).Replace(c.URLTemplate)
}

// PluginPath is the absolute path of the installed compose binary.
func (c Compose) PluginPath() string {
	return filepath.Join(c.PluginDir, ComposeBinaryName)
}
