package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: abc\nrepository: octo/hello\n"), 0o644))

	v := viper.New()
	require.NoError(t, readConfig(v, path, ""))
	assert.Equal(t, "abc", v.GetString("token"))
	assert.Equal(t, "octo/hello", v.GetString("repository"))
	assert.Equal(t, path, v.ConfigFileUsed())
}

func TestReadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [abc\n"), 0o644))

	err := readConfig(viper.New(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestReadConfig_MissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	assert.Error(t, readConfig(viper.New(), path, ""))
}

func TestReadConfig_NoHomeConfig(t *testing.T) {
	v := viper.New()
	require.NoError(t, readConfig(v, "", t.TempDir()))
	assert.Empty(t, v.ConfigFileUsed())
}

func TestReadConfig_MalformedHomeConfig(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gh-issues.yaml"), []byte("token: [abc\n"), 0o644))

	assert.Error(t, readConfig(viper.New(), "", home))
}

func TestReadConfig_Environment(t *testing.T) {
	t.Setenv("GH_ISSUES_TOKEN", "from-env")

	v := viper.New()
	require.NoError(t, readConfig(v, "", t.TempDir()))
	assert.Equal(t, "from-env", v.GetString("token"))
}
