package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "migrate", "seed", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestBootstrapRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := bootstrap(t.Context(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DB_DRIVER")
}

func TestMigrateAndSeedOnSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "ecotrim.db"))
	t.Setenv("LOG_OUTPUT", "stderr")
	app, err := bootstrap(t.Context(), "")
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.migrate())
	require.NoError(t, app.seed())
	require.NoError(t, app.seed())

	var n int64
	require.NoError(t, app.db.Table("clients").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
