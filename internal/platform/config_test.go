package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mischief/internal/platform"
	"github.com/aretw0/mischief/pkg/core"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Missing File Yields Defaults", func(t *testing.T) {
		cfg, err := platform.LoadConfig(filepath.Join(t.TempDir(), platform.ConfigFile))
		require.NoError(t, err)
		assert.Equal(t, platform.DefaultConfig(), cfg)
		assert.Len(t, cfg.Principals, 5)
		assert.Equal(t, core.DefaultAdministrator, cfg.Administrator)
	})

	t.Run("Partial File Keeps Defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, platform.ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("listen: 127.0.0.1:9000\ndata_dir: store\n"), 0o644))

		cfg, err := platform.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
		assert.Equal(t, filepath.Join(dir, "store"), cfg.DataDir)
		assert.Equal(t, core.DefaultAdministrator, cfg.Administrator)
		assert.Equal(t, platform.DefaultPrincipals(), cfg.Principals)
	})

	t.Run("Custom Principals", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), platform.ConfigFile)
		yaml := `administrator: McGonagall
principals:
  - name: McGonagall
    credential: tabby
  - name: Neville
    credential: toad
`
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		cfg, err := platform.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "McGonagall", cfg.Administrator)
		assert.Equal(t, []core.Principal{
			{Name: "McGonagall", Credential: "tabby"},
			{Name: "Neville", Credential: "toad"},
		}, cfg.Principals)
	})

	t.Run("Rejects Duplicate Principals", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), platform.ConfigFile)
		yaml := "principals:\n  - {name: Ron, credential: a}\n  - {name: Ron, credential: b}\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		_, err := platform.LoadConfig(path)
		assert.ErrorIs(t, err, core.ErrAlreadyExists)
	})

	t.Run("Rejects Shared Credential", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), platform.ConfigFile)
		yaml := "principals:\n  - {name: Ron, credential: rat}\n  - {name: Ginny, credential: rat}\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

		_, err := platform.LoadConfig(path)
		assert.ErrorIs(t, err, core.ErrAlreadyExists)
	})

	t.Run("Rejects Invalid Administrator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), platform.ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("administrator: \"a/b\"\n"), 0o644))

		_, err := platform.LoadConfig(path)
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})

	t.Run("Decomposed Duplicate Is Rejected", func(t *testing.T) {
		cfg := platform.DefaultConfig()
		cfg.Principals = []core.Principal{
			{Name: "Jos\u00e9", Credential: "a"},
			{Name: "Jose\u0301", Credential: "b"},
		}
		assert.ErrorIs(t, cfg.Validate(), core.ErrAlreadyExists)
	})

	t.Run("Rejects Malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), platform.ConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("principals: [unclosed\n"), 0o644))

		_, err := platform.LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Marshal Round Trips Through LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		cfg := platform.DefaultConfig()
		cfg.DataDir = filepath.Join(dir, "data")
		data, err := cfg.Marshal()
		require.NoError(t, err)

		path := filepath.Join(dir, platform.ConfigFile)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		loaded, err := platform.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})
}
