package platform

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/deployerra/internal/config"
	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// dnf check-update exits 100 when updates are available.
const dnfUpdatesAvailable = 100

// Variant picks an install command by release descriptor content.
type Variant struct {
	Marker  string
	Install string
}

// Commands are the command templates of one platform family.
type Commands struct {
	Refresh     string
	Install     string
	InstallByID map[string]string
	// Variants are tried in order, so more specific markers must come first.
	Variants []Variant
}

// CommandTable is the immutable family -> Commands mapping built once at startup.
type CommandTable struct {
	families map[Family]Commands
}

// DefaultCommands returns the built-in templates.
func DefaultCommands() map[Family]Commands {
	return map[Family]Commands{
		FamilyDebian: {
			Refresh: "sudo apt-get update",
			Install: "sudo apt-get install -y docker.io",
		},
		FamilyRedHat: {
			Refresh: "sudo dnf check-update",
			Install: "sudo dnf -y install dnf-plugins-core && " +
				"sudo dnf config-manager --add-repo https://download.docker.com/linux/rhel/docker-ce.repo && " +
				"sudo dnf install -y docker-ce docker-ce-cli containerd.io docker-buildx-plugin docker-compose-plugin",
			InstallByID: map[string]string{
				"fedora": "sudo dnf install -y docker",
			},
		},
		FamilyAmazon: {
			Refresh: "sudo yum update -y",
			Variants: []Variant{
				{Marker: "Amazon Linux release 2023", Install: "sudo yum install -y docker"},
				{Marker: "Amazon Linux release 2", Install: "sudo amazon-linux-extras install -y docker"},
			},
		},
		FamilyArch: {
			Refresh: "sudo pacman -Syy --noconfirm",
			Install: "sudo pacman -S --noconfirm docker",
		},
	}
}

// NewCommandTable merges profile overrides onto the built-in templates.
func NewCommandTable(overrides map[string]config.PlatformCommands) (CommandTable, error) {
	families := DefaultCommands()
	for name, o := range overrides {
		family, ok := ParseFamily(name)
		if !ok {
			return CommandTable{}, deperrors.NewValidationError("platforms."+name, "unknown platform family", nil)
		}
		cmds := families[family]
		if o.Refresh != "" {
			cmds.Refresh = o.Refresh
		}
		if o.Install != "" {
			cmds.Install = o.Install
		}
		if len(o.InstallByID) > 0 {
			merged := make(map[string]string, len(cmds.InstallByID)+len(o.InstallByID))
			for id, cmd := range cmds.InstallByID {
				merged[id] = cmd
			}
			for id, cmd := range o.InstallByID {
				merged[id] = cmd
			}
			cmds.InstallByID = merged
		}
		if len(o.Variants) > 0 {
			variants := make([]Variant, len(o.Variants))
			for i, v := range o.Variants {
				variants[i] = Variant{Marker: v.Marker, Install: v.Install}
			}
			cmds.Variants = variants
		}
		families[family] = cmds
	}
	return CommandTable{families: families}, nil
}

// Lookup returns a copy of the templates for f.
func (t CommandTable) Lookup(f Family) (Commands, bool) {
	cmds, ok := t.families[f]
	if !ok {
		return Commands{}, false
	}
	cp := cmds
	if cmds.InstallByID != nil {
		cp.InstallByID = make(map[string]string, len(cmds.InstallByID))
		for k, v := range cmds.InstallByID {
			cp.InstallByID[k] = v
		}
	}
	cp.Variants = append([]Variant(nil), cmds.Variants...)
	return cp, true
}

// IsIgnorableRefreshFailure reports whether a failed refresh exit status is
// conventional on f and must be treated as success.
func IsIgnorableRefreshFailure(f Family, exitCode int) bool {
	switch f {
	case FamilyRedHat:
		return exitCode == dnfUpdatesAvailable
	case FamilyDebian, FamilyAmazon, FamilyArch:
		return false
	default:
		return false
	}
}

// ReleaseReader returns the host's release descriptor text.
type ReleaseReader func() (string, error)

// ResolveInstall picks the runtime install command for host.
func ResolveInstall(cmds Commands, host Identity, readRelease ReleaseReader) (string, error) {
	switch host.Family {
	case FamilyAmazon:
		if readRelease == nil {
			return "", deperrors.NewFatalError(deperrors.UnsupportedPlatformVariant, fmt.Errorf("no release descriptor available"))
		}
		release, err := readRelease()
		if err != nil {
			return "", deperrors.NewFatalError(deperrors.UnsupportedPlatformVariant, fmt.Errorf("determine %s release: %w", host.ID, err))
		}
		for _, v := range cmds.Variants {
			if strings.Contains(release, v.Marker) {
				return v.Install, nil
			}
		}
		return "", deperrors.NewFatalError(deperrors.UnsupportedPlatformVariant, fmt.Errorf("unsupported %s release %q", host.ID, strings.TrimSpace(release)))
	case FamilyDebian, FamilyRedHat, FamilyArch:
		if cmd, ok := cmds.InstallByID[host.ID]; ok && cmd != "" {
			return cmd, nil
		}
		if cmds.Install != "" {
			return cmds.Install, nil
		}
		return "", deperrors.NewFatalError(deperrors.UnsupportedDistroCommand, fmt.Errorf("no install command for %s", host))
	default:
		return "", deperrors.NewFatalError(deperrors.UnsupportedDistroCommand, fmt.Errorf("no install command for %s", host))
	}
}
