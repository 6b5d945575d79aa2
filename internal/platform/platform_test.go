package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	deperrors "github.com/alexisbeaulieu97/deployerra/pkg/errors"
)

func writeOSRelease(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestClassifySupportedIDs(t *testing.T) {
	t.Parallel()

	cases := map[string]Family{
		"ubuntu": FamilyDebian,
		"debian": FamilyDebian,
		"fedora": FamilyRedHat,
		"rhel":   FamilyRedHat,
		"centos": FamilyRedHat,
		"ol":     FamilyRedHat,
		"amzn":   FamilyAmazon,
		"arch":   FamilyArch,
	}

	for raw, want := range cases {
		raw, want := raw, want
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			path := writeOSRelease(t, "NAME=\"Some Linux\"\nID=\""+raw+"\"\nVERSION_ID=\"1\"\n")
			id, err := Classify(path)
			require.NoError(t, err)
			require.Equal(t, want, id.Family)
			require.Equal(t, raw, id.ID)
		})
	}
}

func TestClassifyUnsupportedIDs(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"gentoo", "Ubuntu", "alpine", "opensuse-leap", "debian-like"} {
		path := writeOSRelease(t, "ID="+raw+"\n")
		_, err := Classify(path)

		var classErr *deperrors.ClassificationError
		require.ErrorAs(t, err, &classErr, raw)
		require.Equal(t, deperrors.UnsupportedDistro, classErr.Kind)
		require.Equal(t, raw, classErr.RawID)
	}
}

func TestClassifyUnreadableSource(t *testing.T) {
	t.Parallel()

	_, err := Classify(filepath.Join(t.TempDir(), "missing"))
	var classErr *deperrors.ClassificationError
	require.ErrorAs(t, err, &classErr)
	require.Equal(t, deperrors.UnreadableIdentitySource, classErr.Kind)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestClassifyMissingIDKey(t *testing.T) {
	t.Parallel()

	_, err := Classify(writeOSRelease(t, "NAME=Linux\nID_LIKE=debian\n"))
	var classErr *deperrors.ClassificationError
	require.ErrorAs(t, err, &classErr)
	require.Equal(t, deperrors.UnreadableIdentitySource, classErr.Kind)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"double quoted", `ID="rhel"`, "rhel"},
		{"single quoted", `ID='ol'`, "ol"},
		{"bare", "ID=arch", "arch"},
		{"id_like ignored", "ID_LIKE=debian\nID=ubuntu", "ubuntu"},
		{"lowercase key ignored", "id=ubuntu", ""},
		{"first id wins", "ID=debian\nID=ubuntu", "debian"},
	}

	for _, tc := range cases {
		got, err := ParseID(strings.NewReader(tc.input))
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
}

func TestFamilyStringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, f := range Families() {
		parsed, ok := ParseFamily(f.String())
		require.True(t, ok)
		require.Equal(t, f, parsed)
	}
	_, ok := ParseFamily("unknown")
	require.False(t, ok)
	require.Equal(t, "unknown", Family(0).String())
}
