package demangle

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestDemangle(t *testing.T) {
	testcases := []struct {
		mode   string
		name   string
		pretty string
		typed  string
	}{
		{ModeTemplates, "_ZN3foo3barEi", "foo::bar", "foo::bar(int)"},
		{ModeFull, "_ZN3foo3barEi", "foo::bar(int)", "foo::bar(int)"},
		{ModeSimplified, "_Z3fooi", "foo", "foo(int)"},
		{ModeNone, "_ZN3foo3barEi", "_ZN3foo3barEi", "_ZN3foo3barEi"},
		{ModeTemplates, "main.main", "main.main", "main.main"},
		{ModeTemplates, "", "", ""},
	}
	for _, c := range testcases {
		t.Run(c.mode+"/"+c.name, func(t *testing.T) {
			d, err := New(Config{Mode: c.mode}, nil)
			require.NoError(t, err)
			pretty, typed := d.Demangle(c.name)
			require.Equal(t, c.pretty, pretty)
			require.Equal(t, c.typed, typed)
		})
	}
}

func TestDemangleCache(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	d, err := New(Config{Mode: ModeTemplates, CacheSize: 2}, m)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		pretty, _ := d.Demangle("_Z3fooi")
		require.Equal(t, "foo", pretty)
	}
	require.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses))
	require.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))
}

func TestConfigValidate(t *testing.T) {
	require.Error(t, (&Config{Mode: "weird"}).Validate())
	require.Error(t, (&Config{Mode: ModeFull, CacheSize: -1}).Validate())
	require.NoError(t, (&Config{Mode: ModeFull}).Validate())
	err := (&Config{Mode: "weird", CacheSize: -1}).Validate()
	require.ErrorContains(t, err, "invalid demangle mode")
	require.ErrorContains(t, err, "cache-size")
	_, err = New(Config{Mode: ""}, nil)
	require.Error(t, err)
}

func TestConvertDemangleOptions(t *testing.T) {
	require.Equal(t, DemangleNoneSpecified, ConvertDemangleOptions(ModeNone))
	require.Equal(t, DemangleSimplified, ConvertDemangleOptions(ModeSimplified))
	require.Equal(t, DemangleTemplates, ConvertDemangleOptions(ModeTemplates))
	require.Equal(t, DemangleFull, ConvertDemangleOptions(ModeFull))
	require.Nil(t, ConvertDemangleOptions("unknown"))
}
