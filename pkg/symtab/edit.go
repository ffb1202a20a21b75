package symtab

import (
	"github.com/go-kit/log/level"
)

// AddSymbol registers a symbol created after the initial parse. A dynamic symbol
// is moved from the static to the dynamic symbol table.
//
// The symbol is rejected without side effects if it is nil, already live, or has
// no module name while Config.AllowEmptyModule is off.
func (t *Symtab) AddSymbol(sym *Symbol, dynamic bool) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if err := t.validateAdd(sym); err != nil {
		return err
	}
	t.addSymbol(sym, dynamic)
	return nil
}

// AddSymbolFrom adds a dynamic symbol that inherits the versioning context of
// referring: the version file name becomes referring's owning file and only
// the first of referring's versions is copied.
func (t *Symtab) AddSymbolFrom(sym, referring *Symbol) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if sym == nil || referring == nil {
		return ErrNilSymbol
	}
	mod := referring.Module()
	if mod == nil || mod.Exec() == nil {
		return ErrNoOwningFile
	}
	if err := t.validateAdd(sym); err != nil {
		return err
	}

	filename := mod.Exec().Name()
	sym.SetVersionFileName(filename)
	if _, ok := sym.VersionFileName(); !ok {
		level.Warn(t.logger).Log("msg", "failed to read back version file name", "sym", sym, "version_file", filename)
		t.metrics.Diagnostics.WithLabelValues("version_file_name").Inc()
	}
	if vers := referring.Versions(); len(vers) > 0 {
		sym.SetVersions(vers[:1])
	}

	t.addSymbol(sym, true)
	return nil
}

func (t *Symtab) validateAdd(sym *Symbol) error {
	if sym == nil {
		t.metrics.SymbolsRejected.WithLabelValues("nil").Inc()
		return ErrNilSymbol
	}
	if id, ok := t.arena.lookup(sym); ok && t.index.isLive(id, sym) {
		t.metrics.SymbolsRejected.WithLabelValues("exists").Inc()
		return ErrSymbolExists
	}
	if sym.ModuleName() == "" && !t.cfg.AllowEmptyModule {
		t.metrics.SymbolsRejected.WithLabelValues("empty_module").Inc()
		level.Debug(t.logger).Log("msg", "skipping symbol with empty module", "sym", sym)
		return ErrEmptyModule
	}
	return nil
}

func (t *Symtab) addSymbol(sym *Symbol, dynamic bool) {
	if dynamic {
		sym.clearIsInSymtab()
		sym.setDynSymtab()
	}
	t.prepare(sym)

	id := t.arena.intern(sym)
	t.index.register(id, sym)
	t.aggs.attach(id, sym)
	t.index.addUserAdded(id)

	t.metrics.SymbolsAdded.WithLabelValues("user").Inc()
	level.Debug(t.logger).Log("msg", "symbol added", "sym", sym, "dynamic", dynamic)
}

// DelSymbol makes sym unreachable through every index and aggregate. The record
// itself is left alone: its owner keeps it. Deleting a symbol that is not live
// is a no-op.
func (t *Symtab) DelSymbol(sym *Symbol) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if sym == nil {
		return ErrNilSymbol
	}
	id, ok := t.arena.lookup(sym)
	if !ok {
		return nil
	}
	t.detach(id, sym, sym.Type(), sym.Offset(), "delete")
	if t.index.unregister(id, sym) {
		t.metrics.SymbolsDeleted.Inc()
		level.Debug(t.logger).Log("msg", "symbol deleted", "sym", sym)
	}
	return nil
}

// ChangeType moves sym from the aggregate of oldType to the aggregate of its
// current type. The caller must have called sym.SetType already.
//
// Index keys do not depend on the type, so the keyed views are not re-keyed:
// the symbol is only registered again, which is a no-op for a live symbol.
// A symbol that was not live becomes live.
func (t *Symtab) ChangeType(sym *Symbol, oldType SymbolType) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if sym == nil {
		return ErrNilSymbol
	}
	id := t.arena.intern(sym)
	t.detach(id, sym, oldType, sym.Offset(), "change_type")
	t.index.register(id, sym)
	t.aggs.attach(id, sym)

	t.metrics.TypeChanges.Inc()
	level.Debug(t.logger).Log("msg", "symbol type changed", "sym", sym, "old", oldType)
	return nil
}

// Rekey files a live symbol under its new offset, both in the offset index and
// in the aggregates. The caller must have called sym.SetOffset already.
func (t *Symtab) Rekey(sym *Symbol, oldOffset uint64) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if sym == nil {
		return ErrNilSymbol
	}
	id, ok := t.arena.lookup(sym)
	if !ok || !t.index.rekey(id, sym, oldOffset) {
		return nil
	}
	t.detach(id, sym, sym.Type(), oldOffset, "rekey")
	t.aggs.attach(id, sym)

	t.metrics.Rekeys.Inc()
	level.Debug(t.logger).Log("msg", "symbol rekeyed", "sym", sym, "old_offset", oldOffset)
	return nil
}

// detach removes id from the aggregate that typ collects into. A missing
// aggregate is fine: the symbol may never have been aggregated. Undefined
// symbols never are.
func (t *Symtab) detach(id SymbolID, sym *Symbol, typ SymbolType, offset uint64, op string) {
	k := kindOf(typ)
	if k == kindNone || sym.IsUndefined() {
		return
	}
	if t.aggs.detach(id, k, offset) {
		return
	}
	t.metrics.AggregateMisses.WithLabelValues(op, k.String()).Inc()
	level.Debug(t.logger).Log("msg", "no aggregate at symbol offset", "op", op, "kind", k, "sym", sym, "offset", offset)
}
