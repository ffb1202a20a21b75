package symtab

import (
	"flag"

	"github.com/grafana/dskit/flagext"

	"github.com/grafana/symtab/pkg/symtab/demangle"
)

type Config struct {
	// AllowEmptyModule accepts added symbols that carry no module name. Some
	// object formats (PE) create variables without a module.
	AllowEmptyModule bool `yaml:"allow_empty_module"`
	// RetainEmptyKeys keeps index keys whose symbol set became empty.
	RetainEmptyKeys bool `yaml:"retain_empty_keys" category:"advanced"`

	Demangle demangle.Config `yaml:"demangle"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.BoolVar(&cfg.AllowEmptyModule, "symtab.allow-empty-module", false, "Accept added symbols without a module name.")
	f.BoolVar(&cfg.RetainEmptyKeys, "symtab.retain-empty-keys", false, "Keep index keys with no symbols left instead of dropping them.")
	cfg.Demangle.RegisterFlagsWithPrefix("symtab.demangle.", f)
}

func (cfg *Config) Validate() error {
	return cfg.Demangle.Validate()
}

// DefaultConfig returns a Config populated with the flag defaults.
func DefaultConfig() Config {
	var cfg Config
	flagext.DefaultValues(&cfg)
	return cfg
}
