package symtab

import "fmt"

type DebugInfo struct {
	File             string `yaml:"file"`
	Records          int    `yaml:"records"`
	Defined          int    `yaml:"defined"`
	UserAdded        int    `yaml:"user_added"`
	UndefinedDynamic int    `yaml:"undefined_dynamic"`
	Offsets          int    `yaml:"offsets"`
	Functions        int    `yaml:"functions"`
	EmptyFunctions   int    `yaml:"empty_functions"`
	Variables        int    `yaml:"variables"`
	EmptyVariables   int    `yaml:"empty_variables"`
	Modules          int    `yaml:"modules"`
}

func (t *Symtab) DebugInfo() DebugInfo {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	res := DebugInfo{
		File:             t.file.Name(),
		Records:          t.arena.len(),
		Defined:          len(t.index.defined),
		UserAdded:        len(t.index.userAdded),
		UndefinedDynamic: len(t.index.undefDyn),
		Offsets:          t.index.byOffset.keys(),
		Functions:        len(t.aggs.funcOrder),
		Variables:        len(t.aggs.varOrder),
		Modules:          len(t.file.Modules()),
	}
	for _, f := range t.aggs.funcOrder {
		if len(f.members) == 0 {
			res.EmptyFunctions++
		}
	}
	for _, v := range t.aggs.varOrder {
		if len(v.members) == 0 {
			res.EmptyVariables++
		}
	}
	return res
}

func (t *Symtab) DebugString() string {
	d := t.DebugInfo()
	return fmt.Sprintf("Symtab{ f = %s, defined = %d, funcs = %d, vars = %d }", d.File, d.Defined, d.Functions, d.Variables)
}
