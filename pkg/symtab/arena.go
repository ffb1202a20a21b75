package symtab

// SymbolID is a stable handle of a symbol inside one Symtab. Handles are never
// reused, so an index entry can not start pointing to a different record.
type SymbolID uint32

const noSymbol SymbolID = 0

// arena maps records to handles. It only references the records: their storage
// belongs to the LinkedFile or to whoever created them.
type arena struct {
	records []*Symbol
	ids     map[*Symbol]SymbolID
}

func newArena(capacity int) *arena {
	return &arena{
		records: make([]*Symbol, 0, capacity),
		ids:     make(map[*Symbol]SymbolID, capacity),
	}
}

func (a *arena) intern(s *Symbol) SymbolID {
	if id, ok := a.ids[s]; ok {
		return id
	}
	a.records = append(a.records, s)
	id := SymbolID(len(a.records))
	a.ids[s] = id
	return id
}

func (a *arena) lookup(s *Symbol) (SymbolID, bool) {
	id, ok := a.ids[s]
	return id, ok
}

func (a *arena) get(id SymbolID) *Symbol {
	if id == noSymbol || int(id) > len(a.records) {
		return nil
	}
	return a.records[id-1]
}

func (a *arena) resolve(ids []SymbolID) []*Symbol {
	if len(ids) == 0 {
		return nil
	}
	res := make([]*Symbol, 0, len(ids))
	for _, id := range ids {
		res = append(res, a.get(id))
	}
	return res
}

func (a *arena) len() int { return len(a.records) }
