package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/orderrecon/internal/application/service"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	POSFile     string
	POSType     string
	SourceFiles []string
	SourceType  string

	AbsTolerance string
	PctTolerance string
	MaxGroupSize int
	Workers      int
	Timeout      time.Duration

	Database  string
	NoHistory bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile local export files",
		Long: `Reconcile one POS export against one or more source platform exports.

Several source files are concatenated before matching. Tolerance flags
override the config file.

Example:
  reconcile run --pos bills.xlsx --pos-type petpooja \
    --source swiggy-jan.csv,swiggy-feb.csv --source-type swiggy
  reconcile run --pos bills.csv --pos-type ristas --source zp.xlsx \
    --source-type zomatopay --abs-tolerance 5 --format json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.POSFile, "pos", "", "POS export file (required)")
	f.StringVar(&opts.POSType, "pos-type", "", "POS platform: petpooja|ristas (required)")
	f.StringSliceVar(&opts.SourceFiles, "source", nil, "source export file(s), comma separated (required)")
	f.StringVar(&opts.SourceType, "source-type", "", "source platform: swiggy|zomatopay|eazydiner (required)")
	f.StringVar(&opts.AbsTolerance, "abs-tolerance", "", "absolute tolerance in currency units, 0 disables")
	f.StringVar(&opts.PctTolerance, "pct-tolerance", "", "percent tolerance of the source amount, 0 disables")
	f.IntVar(&opts.MaxGroupSize, "max-group-size", 0, "largest POS group tried by the grouped stage")
	f.IntVar(&opts.Workers, "workers", 0, "dates searched concurrently")
	f.DurationVar(&opts.Timeout, "timeout", 0, "run timeout, e.g. 30s")
	f.StringVar(&opts.Database, "db", "", "run history database (default from config)")
	f.BoolVar(&opts.NoHistory, "no-history", false, "do not record the run")

	for _, name := range []string{"pos", "pos-type", "source", "source-type"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runReconcile(cmd *cobra.Command, opts *RunOptions) error {
	cfg := loadConfig(opts.RootOptions)
	rc := &cfg.Reconcile
	if cmd.Flags().Changed("abs-tolerance") {
		rc.AbsoluteTolerance = opts.AbsTolerance
	}
	if cmd.Flags().Changed("pct-tolerance") {
		rc.PercentTolerance = opts.PctTolerance
	}
	if opts.MaxGroupSize > 0 {
		rc.MaxGroupSize = opts.MaxGroupSize
	}
	if opts.Workers > 0 {
		rc.Workers = opts.Workers
	}
	if cmd.Flags().Changed("timeout") {
		rc.Timeout = opts.Timeout.String()
	}
	if opts.Database != "" {
		cfg.Storage.DatabasePath = opts.Database
	}

	a, err := newApp(cfg, "run", !opts.NoHistory)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req := service.Request{POSType: opts.POSType, SourceType: opts.SourceType}

	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	open := func(path string) (service.File, error) {
		f, err := os.Open(path)
		if err != nil {
			return service.File{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		files = append(files, f)
		return service.File{Name: filepath.Base(path), Reader: f}, nil
	}

	if req.POS, err = open(opts.POSFile); err != nil {
		return err
	}
	for _, path := range opts.SourceFiles {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		f, err := open(path)
		if err != nil {
			return err
		}
		req.Sources = append(req.Sources, f)
	}

	res, err := a.service.Reconcile(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return WriteJSON(out, res)
	}
	PrintSummary(out, res)
	return nil
}
