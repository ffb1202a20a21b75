package demangle

import (
	"flag"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/ianlancetaylor/demangle"
)

var (
	DemangleUnspecified   []demangle.Option = nil
	DemangleNoneSpecified                   = make([]demangle.Option, 0)
	DemangleSimplified                      = []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams, demangle.NoTemplateParams}
	DemangleTemplates                       = []demangle.Option{demangle.NoParams, demangle.NoEnclosingParams}
	DemangleFull                            = []demangle.Option{demangle.NoClones}
)

const (
	ModeNone       = "none"
	ModeSimplified = "simplified"
	ModeTemplates  = "templates"
	ModeFull       = "full"
)

func ConvertDemangleOptions(o string) []demangle.Option {
	switch o {
	case ModeNone:
		return DemangleNoneSpecified
	case ModeSimplified:
		return DemangleSimplified
	case ModeTemplates:
		return DemangleTemplates
	case ModeFull:
		return DemangleFull
	default:
		return DemangleUnspecified
	}
}

type Config struct {
	// Mode controls how much of a C++/Rust name is kept in the pretty name.
	// Typed names are always demangled in full.
	Mode      string `yaml:"mode"`
	CacheSize int    `yaml:"cache_size" category:"advanced"`
}

func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Mode, prefix+"mode", ModeTemplates, "Demangling mode for pretty names: none, simplified, templates or full.")
	f.IntVar(&cfg.CacheSize, prefix+"cache-size", 4096, "Number of demangled names to cache. 0 disables the cache.")
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("demangle.", f)
}

func (cfg *Config) Validate() error {
	var errs *multierror.Error
	switch cfg.Mode {
	case ModeNone, ModeSimplified, ModeTemplates, ModeFull:
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid demangle mode %q", cfg.Mode))
	}
	if cfg.CacheSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("invalid demangle cache-size value, must not be negative"))
	}
	return errs.ErrorOrNil()
}
