package symtab

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CheckConsistency verifies that the indices and aggregates agree with the live
// symbol set and returns every violation found.
func (t *Symtab) CheckConsistency() error {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	var errs *multierror.Error
	ix := t.index

	seen := make(map[SymbolID]int, len(ix.defined))
	for _, id := range ix.defined {
		seen[id]++
	}
	for id, n := range seen {
		if n > 1 {
			errs = multierror.Append(errs, fmt.Errorf("%s is defined %d times", t.arena.get(id), n))
		}
		if _, ok := ix.definedSet[id]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("%s is defined but not in the defined set", t.arena.get(id)))
		}
	}
	if len(seen) != len(ix.definedSet) {
		errs = multierror.Append(errs, fmt.Errorf("defined set has %d symbols, defined list has %d", len(ix.definedSet), len(seen)))
	}

	for id := range seen {
		sym := t.arena.get(id)
		if sym.isUndefinedDynamic() {
			errs = multierror.Append(errs, fmt.Errorf("%s is undefined dynamic but filed as defined", sym))
		}
		errs = checkFiled(errs, "offset", ix.byOffset, sym.Offset(), id, sym)
		errs = checkFiled(errs, "mangled name", ix.byMangled, sym.MangledName(), id, sym)
		errs = checkFiled(errs, "pretty name", ix.byPretty, sym.PrettyName(), id, sym)
		errs = checkFiled(errs, "typed name", ix.byTyped, sym.TypedName(), id, sym)
		errs = t.checkAggregated(errs, id, sym)
	}
	for view, n := range map[string]int{
		"offset":       ix.byOffset.entries(),
		"mangled name": ix.byMangled.entries(),
		"pretty name":  ix.byPretty.entries(),
		"typed name":   ix.byTyped.entries(),
	} {
		if n != len(seen) {
			errs = multierror.Append(errs, fmt.Errorf("%s index has %d entries for %d defined symbols", view, n, len(seen)))
		}
	}

	for _, id := range ix.userAdded {
		if sym := t.arena.get(id); !ix.isLive(id, sym) {
			errs = multierror.Append(errs, fmt.Errorf("user added %s is not live", sym))
		}
	}
	for name, id := range ix.undefDyn {
		sym := t.arena.get(id)
		if sym.MangledName() != name || !sym.isUndefinedDynamic() {
			errs = multierror.Append(errs, fmt.Errorf("undefined dynamic name %q maps to %s", name, sym))
		}
	}

	owners := make(map[SymbolID]int)
	for _, f := range t.aggs.funcOrder {
		errs = t.checkMembers(errs, &f.Aggregate, kindFunction, owners)
	}
	for _, v := range t.aggs.varOrder {
		errs = t.checkMembers(errs, &v.Aggregate, kindVariable, owners)
	}
	for id, n := range owners {
		if n > 1 {
			errs = multierror.Append(errs, fmt.Errorf("%s belongs to %d aggregates", t.arena.get(id), n))
		}
	}
	return errs.ErrorOrNil()
}

func checkFiled[K comparable](errs *multierror.Error, view string, p *postings[K], key K, id SymbolID, sym *Symbol) *multierror.Error {
	n := 0
	for _, x := range p.get(key) {
		if x == id {
			n++
		}
	}
	if n != 1 {
		return multierror.Append(errs, fmt.Errorf("%s is filed %d times under its %s", sym, n, view))
	}
	return errs
}

func (t *Symtab) checkAggregated(errs *multierror.Error, id SymbolID, sym *Symbol) *multierror.Error {
	if sym.IsUndefined() {
		return errs
	}
	var agg *Aggregate
	switch kindOf(sym.Type()) {
	case kindFunction:
		if f, ok := t.aggs.findFunctionByEntryOffset(sym.Offset()); ok {
			agg = &f.Aggregate
		}
	case kindVariable:
		if v, ok := t.aggs.findVariableByOffset(sym.Offset()); ok {
			agg = &v.Aggregate
		}
	default:
		return errs
	}
	if agg == nil || !agg.contains(id) {
		return multierror.Append(errs, fmt.Errorf("%s is missing from its aggregate", sym))
	}
	return errs
}

func (t *Symtab) checkMembers(errs *multierror.Error, a *Aggregate, k aggregateKind, owners map[SymbolID]int) *multierror.Error {
	for _, id := range a.members {
		owners[id]++
		sym := t.arena.get(id)
		if sym.Offset() != a.offset {
			errs = multierror.Append(errs, fmt.Errorf("%s sits in the %s at 0x%x", sym, k, a.offset))
		}
		if kindOf(sym.Type()) != k {
			errs = multierror.Append(errs, fmt.Errorf("%s is a member of a %s", sym, k))
		}
		if !t.index.isLive(id, sym) {
			errs = multierror.Append(errs, fmt.Errorf("%s is a member of the %s at 0x%x but not live", sym, k, a.offset))
		}
	}
	return errs
}
