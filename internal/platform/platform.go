// Package platform classifies the host and owns the per-platform command
// templates used by the provisioning executor.
package platform

import (
	"bufio"
	"io"
	"os"
	"strings"

	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

// Family is the closed set of supported platform identities.
type Family int

const (
	FamilyDebian Family = iota + 1
	FamilyRedHat
	FamilyAmazon
	FamilyArch
)

// Families lists every supported family in a stable order.
func Families() []Family {
	return []Family{FamilyDebian, FamilyRedHat, FamilyAmazon, FamilyArch}
}

func (f Family) String() string {
	switch f {
	case FamilyDebian:
		return "debian"
	case FamilyRedHat:
		return "redhat"
	case FamilyAmazon:
		return "amazon"
	case FamilyArch:
		return "arch"
	default:
		return "unknown"
	}
}

// ParseFamily maps a family name as used in profiles back to a Family.
func ParseFamily(name string) (Family, bool) {
	for _, f := range Families() {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

var supportedIDs = map[string]Family{
	"ubuntu": FamilyDebian,
	"debian": FamilyDebian,
	"fedora": FamilyRedHat,
	"rhel":   FamilyRedHat,
	"centos": FamilyRedHat,
	"ol":     FamilyRedHat,
	"amzn":   FamilyAmazon,
	"arch":   FamilyArch,
}

// Identity is the classified host. ID keeps the raw os-release value so
// commands can differ between members of the same family.
type Identity struct {
	Family Family
	ID     string
}

func (i Identity) String() string {
	return i.ID + " (" + i.Family.String() + " family)"
}

// FamilyForID maps a raw os-release ID to its family.
func FamilyForID(raw string) (Family, bool) {
	f, ok := supportedIDs[raw]
	return f, ok
}

// Classify reads the os-release record at path and maps its ID to a Family.
func Classify(path string) (Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return Identity{}, deperrors.NewUnreadableSourceError(path, err)
	}
	defer f.Close()

	raw, err := ParseID(f)
	if err != nil {
		return Identity{}, deperrors.NewUnreadableSourceError(path, err)
	}
	if raw == "" {
		return Identity{}, deperrors.NewUnreadableSourceError(path, nil)
	}

	family, ok := FamilyForID(raw)
	if !ok {
		return Identity{}, deperrors.NewUnsupportedDistroError(path, raw)
	}
	return Identity{Family: family, ID: raw}, nil
}

// ParseID extracts the value of the ID key from a key=value record. The key
// is matched case-sensitively and surrounding quotes are stripped. An absent
// key yields an empty string.
func ParseID(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "ID=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		return value, nil
	}
	return "", scanner.Err()
}
