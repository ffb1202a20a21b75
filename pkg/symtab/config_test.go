package symtab

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grafana/symtab/pkg/symtab/demangle"
)

func TestConfigFlags(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.AllowEmptyModule)
	require.False(t, cfg.RetainEmptyKeys)
	require.Equal(t, demangle.ModeTemplates, cfg.Demangle.Mode)
	require.NoError(t, cfg.Validate())

	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-symtab.allow-empty-module",
		"-symtab.demangle.mode=none",
		"-symtab.demangle.cache-size=0",
	}))
	require.True(t, cfg.AllowEmptyModule)
	require.Equal(t, demangle.ModeNone, cfg.Demangle.Mode)
	require.Equal(t, 0, cfg.Demangle.CacheSize)
	require.NoError(t, cfg.Validate())

	cfg.Demangle.CacheSize = -1
	require.Error(t, cfg.Validate())
}
