package elf

import (
	"bytes"
	"debug/elf"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/grafana/symtab/pkg/symtab"
	"github.com/grafana/symtab/pkg/test"
)

func TestNotElf(t *testing.T) {
	_, err := Load("garbage", bytes.NewReader([]byte("definitely not an elf file")), Options{})
	require.Error(t, err)

	_, err = Open("/does/not/exist", Options{})
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNewSymbol(t *testing.T) {
	file := symtab.NewLinkedFile("/usr/lib/libc.so.6")
	mod := file.DefaultModule()

	testcases := []struct {
		name    string
		sym     elf.Symbol
		dynamic bool
		check   func(t *testing.T, s *symtab.Symbol)
	}{
		{
			name: "global function",
			sym: elf.Symbol{
				Name:    "malloc",
				Info:    elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
				Section: 14,
				Value:   0x1000,
				Size:    0x80,
			},
			check: func(t *testing.T, s *symtab.Symbol) {
				require.Equal(t, symtab.TypeFunction, s.Type())
				require.Equal(t, symtab.LinkageGlobal, s.Linkage())
				require.Equal(t, uint64(0x1000), s.Offset())
				require.Equal(t, uint64(0x80), s.Size())
				require.True(t, s.InSymtab())
				require.False(t, s.IsUndefined())
			},
		},
		{
			name: "undefined versioned import",
			sym: elf.Symbol{
				Name:    "free",
				Info:    elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
				Section: elf.SHN_UNDEF,
				Version: "GLIBC_2.2.5",
				Library: "libc.so.6",
			},
			dynamic: true,
			check: func(t *testing.T, s *symtab.Symbol) {
				require.True(t, s.IsUndefined())
				require.True(t, s.InDynSymtab())
				require.False(t, s.InSymtab())
				require.Equal(t, []string{"GLIBC_2.2.5"}, s.Versions())
				vf, ok := s.VersionFileName()
				require.True(t, ok)
				require.Equal(t, "libc.so.6", vf)
			},
		},
		{
			name: "weak tls",
			sym:  elf.Symbol{Name: "errno", Info: elf.ST_INFO(elf.STB_WEAK, elf.STT_TLS), Section: 20},
			check: func(t *testing.T, s *symtab.Symbol) {
				require.Equal(t, symtab.TypeTLS, s.Type())
				require.Equal(t, symtab.LinkageWeak, s.Linkage())
			},
		},
		{
			name: "hidden object",
			sym: elf.Symbol{
				Name:    "table",
				Info:    elf.ST_INFO(elf.STB_LOCAL, elf.STT_OBJECT),
				Other:   byte(elf.STV_HIDDEN),
				Section: 22,
			},
			check: func(t *testing.T, s *symtab.Symbol) {
				require.Equal(t, symtab.TypeObject, s.Type())
				require.Equal(t, symtab.LinkageLocal, s.Linkage())
				require.Equal(t, symtab.Visibility(elf.STV_HIDDEN), s.Visibility())
			},
		},
		{
			name: "section symbol",
			sym:  elf.Symbol{Name: ".text", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_SECTION), Section: 14},
			check: func(t *testing.T, s *symtab.Symbol) {
				require.Equal(t, symtab.TypeOther, s.Type())
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSymbol(&tc.sym, tc.dynamic, mod)
			require.Equal(t, tc.sym.Name, s.MangledName())
			require.Same(t, mod, s.Module())
			tc.check(t, s)
		})
	}
}

func TestCompilationUnits(t *testing.T) {
	l := &loader{file: symtab.NewLinkedFile("/bin/app")}
	l.add([]elf.Symbol{
		{Name: "a.c", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE), Section: elf.SHN_ABS},
		{Name: "helper", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FUNC), Section: 14, Value: 0x10},
		{Name: "main", Info: elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC), Section: 14, Value: 0x20},
		{Name: "", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_NOTYPE)},
	}, false)

	syms := l.file.Symbols()
	require.Len(t, syms, 3)
	require.Equal(t, symtab.TypeModule, syms[0].Type())
	require.Equal(t, "a.c", syms[0].ModuleName())
	require.Equal(t, "a.c", syms[1].ModuleName())
	require.Equal(t, "app", syms[2].ModuleName())
}

func newFixtureTable(t *testing.T, path string, opts Options) *symtab.Symtab {
	t.Helper()
	opts.Logger = test.NewTestingLogger(t)
	file, err := Open(path, opts)
	require.NoError(t, err)
	tab, err := symtab.New(test.NewTestingLogger(t), symtab.DefaultConfig(), file, symtab.Options{})
	require.NoError(t, err)
	require.NoError(t, tab.CheckConsistency())
	return tab
}

func findOne(t *testing.T, tab *symtab.Symtab, name string) *symtab.Symbol {
	t.Helper()
	found := tab.FindSymbolsByMangledName(name)
	require.Len(t, found, 1, name)
	return found[0]
}

func TestLoadFixture(t *testing.T) {
	tab := newFixtureTable(t, "testdata/fixture", Options{})

	compute := findOne(t, tab, "compute")
	require.Equal(t, symtab.TypeFunction, compute.Type())
	require.Equal(t, symtab.LinkageGlobal, compute.Linkage())
	require.Equal(t, uint64(0x40113d), compute.Offset())
	require.Equal(t, uint64(33), compute.Size())
	require.Equal(t, "fixture", compute.ModuleName())
	require.True(t, compute.InSymtab())

	helper := findOne(t, tab, "helper")
	require.Equal(t, symtab.LinkageLocal, helper.Linkage())
	require.Equal(t, "fixture.c", helper.ModuleName())
	f, ok := tab.FindFunctionContaining(0x401130)
	require.True(t, ok)
	require.Equal(t, []string{"helper"}, f.MangledNames())

	counter := findOne(t, tab, "counter")
	require.Equal(t, symtab.TypeObject, counter.Type())
	_, ok = tab.FindVariableByOffset(0x404018)
	require.True(t, ok)
	require.Equal(t, symtab.TypeTLS, findOne(t, tab, "tls_value").Type())

	require.NotEmpty(t, tab.FindSymbolsByMangledName("main"))
	require.Contains(t, lo.Map(tab.Modules(), func(m *symtab.Module, _ int) string { return m.FullName() }), "crtstuff.c")

	printf, ok := tab.FindUndefinedDynamic("printf")
	require.True(t, ok)
	require.True(t, printf.IsUndefined())
	require.True(t, printf.InDynSymtab())
	require.Equal(t, []string{"GLIBC_2.2.5"}, printf.Versions())
	vf, ok := printf.VersionFileName()
	require.True(t, ok)
	require.Equal(t, "libc.so.6", vf)
}

func TestLoadMiniDebugInfo(t *testing.T) {
	tab := newFixtureTable(t, "testdata/fixture.minidebug", Options{})
	require.Empty(t, tab.FindSymbolsByMangledName("compute"))
	_, ok := tab.FindUndefinedDynamic("printf")
	require.True(t, ok)

	tab = newFixtureTable(t, "testdata/fixture.minidebug", Options{MiniDebugInfo: true})
	compute := findOne(t, tab, "compute")
	require.Equal(t, uint64(0x40113d), compute.Offset())
	f, ok := tab.FindFunctionByEntryOffset(0x40113d)
	require.True(t, ok)
	require.Equal(t, []string{"compute"}, f.MangledNames())

	helper := findOne(t, tab, "helper")
	require.Equal(t, "fixture.minidebug", helper.ModuleName(), "file symbols are stripped from mini debug info")
	_, ok = tab.FindUndefinedDynamic("printf")
	require.True(t, ok)
}

func TestUnnamedFileClosesCompilationUnit(t *testing.T) {
	l := &loader{file: symtab.NewLinkedFile("/bin/app")}
	l.add([]elf.Symbol{
		{Name: "crtstuff.c", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE), Section: elf.SHN_ABS},
		{Name: "", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE), Section: elf.SHN_ABS},
		{Name: "_DYNAMIC", Info: elf.ST_INFO(elf.STB_LOCAL, elf.STT_OBJECT), Section: 21},
	}, false)

	syms := l.file.Symbols()
	require.Len(t, syms, 2)
	require.Equal(t, "app", syms[1].ModuleName())
}
