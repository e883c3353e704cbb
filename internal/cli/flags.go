package cli

import (
	"flag"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clubledger/reconcile/internal/application/reconcile"
)

// CommonFlags are shared by every command
type CommonFlags struct {
	ConfigPath string
	Verbose    bool
}

func (f *CommonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "config.yaml", "Configuration file path (environment variables when missing)")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose output")
}

// AutoMatchFlags configure one auto-match run
type AutoMatchFlags struct {
	CommonFlags
	EventID   string
	DryRun    bool
	AutoCash  bool
	Tolerance string // empty keeps the configured value
	DateDays  int    // negative keeps the configured value
}

// ParseAutoMatchFlags parses the automatch command line
func ParseAutoMatchFlags(args []string) (*AutoMatchFlags, error) {
	flags := &AutoMatchFlags{}
	fs := flag.NewFlagSet("automatch", flag.ContinueOnError)
	flags.register(fs)
	fs.StringVar(&flags.EventID, "event", "", "Event to reconcile (required)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Show the plan without linking")
	fs.BoolVar(&flags.AutoCash, "auto-cash", false, "Mark payables without a bank match as cash")
	fs.StringVar(&flags.Tolerance, "tolerance", "", "Amount tolerance, e.g. 0.50")
	fs.IntVar(&flags.DateDays, "date-days", -1, "Date window in days (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.EventID == "" {
		return nil, fmt.Errorf("-event is required")
	}
	return flags, nil
}

// Apply overrides the configured options with the flags that were set
func (f *AutoMatchFlags) Apply(opts reconcile.AutoMatchOptions) (reconcile.AutoMatchOptions, error) {
	if f.Tolerance != "" {
		tolerance, err := decimal.NewFromString(f.Tolerance)
		if err != nil {
			return opts, fmt.Errorf("invalid -tolerance %q: %w", f.Tolerance, err)
		}
		opts.AmountTolerance = tolerance
	}
	if f.DateDays >= 0 {
		opts.DateToleranceDays = f.DateDays
	}
	if f.AutoCash {
		opts.AutoMarkCash = true
	}
	opts.DryRun = f.DryRun
	return opts, nil
}

// RepairFlags configure an integrity repair run
type RepairFlags struct {
	CommonFlags
	DryRun         bool
	ReconciledOnly bool
}

// ParseRepairFlags parses the repair command line
func ParseRepairFlags(args []string) (*RepairFlags, error) {
	flags := &RepairFlags{}
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	flags.register(fs)
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Report problems without fixing them")
	fs.BoolVar(&flags.ReconciledOnly, "reconciled-only", false, "Only recompute reconciled flags")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	CommonFlags
	Port int // 0 keeps the configured port
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.register(fs)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}
