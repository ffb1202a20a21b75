package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostings(t *testing.T) {
	for _, retain := range []bool{false, true} {
		p := newPostings[string](0, retain)
		require.True(t, p.add("a", 1))
		require.False(t, p.add("a", 1))
		require.True(t, p.add("a", 2))
		require.Equal(t, []SymbolID{1, 2}, p.get("a"))
		require.Equal(t, 2, p.entries())

		require.True(t, p.remove("a", 1))
		require.False(t, p.remove("a", 1))
		require.False(t, p.remove("b", 1))
		require.Equal(t, []SymbolID{2}, p.get("a"))

		require.True(t, p.remove("a", 2))
		require.Empty(t, p.get("a"))
		require.Equal(t, retain, p.has("a"))
		require.Equal(t, 0, p.entries())
	}
}

func TestIndexSetRegister(t *testing.T) {
	a := newArena(0)
	ix := newIndexSet(a, 0, false)
	s := NewSymbol("_Z1fv", TypeFunction, 0x10, WithPrettyName("f"), WithTypedName("f()"))
	id := a.intern(s)

	require.True(t, ix.register(id, s))
	require.False(t, ix.register(id, s), "already registered")
	require.Equal(t, []*Symbol{s}, ix.definedSymbols())
	require.Equal(t, []*Symbol{s}, ix.findByOffset(0x10))
	require.Equal(t, []*Symbol{s}, ix.findByMangledName("_Z1fv"))
	require.Equal(t, []*Symbol{s}, ix.findByPrettyName("f"))
	require.Equal(t, []*Symbol{s}, ix.findByTypedName("f()"))
	require.True(t, ix.isLive(id, s))

	ix.addUserAdded(id)
	ix.addUserAdded(id)
	require.Equal(t, []*Symbol{s}, ix.userAddedSymbols())

	require.True(t, ix.unregister(id, s))
	require.False(t, ix.unregister(id, s))
	require.False(t, ix.isLive(id, s))
	require.Empty(t, ix.definedSymbols())
	require.Empty(t, ix.userAddedSymbols())
	require.Empty(t, ix.findByOffset(0x10))
	require.Equal(t, 0, ix.byOffset.keys())
	require.Equal(t, 0, ix.byTyped.keys())
}

func TestIndexSetRekey(t *testing.T) {
	a := newArena(0)
	ix := newIndexSet(a, 0, false)
	s := NewSymbol("f", TypeFunction, 0x10)
	id := a.intern(s)

	s.SetOffset(0x20)
	require.False(t, ix.rekey(id, s, 0x10), "not registered")

	ix.register(id, s)
	s.SetOffset(0x30)
	require.True(t, ix.rekey(id, s, 0x20))
	require.Empty(t, ix.findByOffset(0x20))
	require.Equal(t, []*Symbol{s}, ix.findByOffset(0x30))
	require.Equal(t, 1, ix.byOffset.entries())
}

func TestArena(t *testing.T) {
	a := newArena(0)
	s1, s2 := NewSymbol("a", TypeFunction, 1), NewSymbol("a", TypeFunction, 1)
	id1 := a.intern(s1)
	require.Equal(t, id1, a.intern(s1))
	id2 := a.intern(s2)
	require.NotEqual(t, id1, id2, "handles follow records, not their contents")
	require.Same(t, s2, a.get(id2))
	require.Nil(t, a.get(noSymbol))
	require.Nil(t, a.get(42))
	_, ok := a.lookup(NewSymbol("b", TypeObject, 0))
	require.False(t, ok)
	require.Equal(t, 2, a.len())
}
