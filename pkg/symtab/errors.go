package symtab

import "errors"

var (
	ErrNilSymbol    = errors.New("symbol is nil")
	ErrEmptyModule  = errors.New("symbol has an empty module name")
	ErrSymbolExists = errors.New("symbol is already registered")
	ErrNoOwningFile = errors.New("referring symbol has no owning file")
)
