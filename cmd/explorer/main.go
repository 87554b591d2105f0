// Command explorer drives the trajectory explorer against a running
// analysis backend without a UI: it applies a filter configuration, runs
// the search, optionally drills into one trajectory, and prints the
// results with a colour legend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/jengzang/trajectory-explorer/internal/client"
	"github.com/jengzang/trajectory-explorer/internal/colorscale"
	"github.com/jengzang/trajectory-explorer/internal/config"
	"github.com/jengzang/trajectory-explorer/internal/explorer"
	"github.com/jengzang/trajectory-explorer/internal/logging"
	"github.com/jengzang/trajectory-explorer/internal/models"
	"github.com/jengzang/trajectory-explorer/internal/persist"
	"github.com/jengzang/trajectory-explorer/internal/store"
	"github.com/jengzang/trajectory-explorer/internal/units"
)

type options struct {
	configPath string
	backendURL string
	targetBody int
	importPath string
	exportPath string
	selectID   int64
	confirm    bool
	colorField string
	highlight  string
	clip       float64
	noState    bool
	timeout    time.Duration
}

func main() {
	var opts options
	pflag.StringVar(&opts.configPath, "config", "", "YAML config file")
	pflag.StringVar(&opts.backendURL, "backend", "", "analysis backend URL (overrides BACKEND_URL)")
	pflag.IntVar(&opts.targetBody, "target-body", 0, "target body id (overrides TARGET_BODY)")
	pflag.StringVarP(&opts.importPath, "import", "i", "", "import a filter/tab configuration file")
	pflag.StringVarP(&opts.exportPath, "export", "o", "", "export the filter/tab configuration after the run")
	pflag.Int64VarP(&opts.selectID, "select", "s", 0, "trajectory id to drill into")
	pflag.BoolVar(&opts.confirm, "confirm", false, "pin the selected trajectory")
	pflag.StringVar(&opts.colorField, "color", "c3", "field used for the colour scale")
	pflag.StringVar(&opts.highlight, "highlight", "", "colour-scale range to mark, as LOWER:UPPER")
	pflag.Float64Var(&opts.clip, "clip", 0, "quantile clipped from each end of the colour domain (0 keeps the full extent)")
	pflag.BoolVar(&opts.noState, "no-state", false, "do not load or save persisted state")
	pflag.DurationVar(&opts.timeout, "timeout", time.Minute, "overall timeout")
	pflag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := config.Load()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if opts.backendURL != "" {
		cfg.BackendURL = opts.backendURL
	}
	if opts.targetBody != 0 {
		cfg.TargetBody = opts.targetBody
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	backend := client.New(cfg.BackendURL, client.WithSecret(cfg.JWTSecret), client.WithLogger(logger))

	controllerOptions := []explorer.Option{
		explorer.WithLogger(logger),
		explorer.WithContext(ctx),
		explorer.WithDebounce(cfg.Debounce),
		explorer.WithRetryDelay(cfg.RetryDelay),
		explorer.WithScales(units.Scales{"trajectory.relay_volume": cfg.RelayVolumeScale}),
	}
	if !opts.noState {
		state, err := persist.Open(cfg.StateDBPath)
		if err != nil {
			return err
		}
		defer state.Close()
		controllerOptions = append(controllerOptions, explorer.WithPersister(state))
	}

	ctrl := explorer.New(backend, controllerOptions...)
	defer ctrl.Close()

	s := ctrl.Store()
	s.Subscribe(func(f store.Field) {
		if f != store.FieldStatus {
			return
		}
		if status := s.Status(); status.Message != "" {
			level := slog.LevelInfo
			if status.Level == store.LevelError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, status.Message)
		}
	})

	if err := waitForReference(ctx, ctrl, cfg.RetryDelay); err != nil {
		return err
	}

	if opts.importPath != "" {
		data, err := os.ReadFile(opts.importPath)
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}
		if err := ctrl.Import(data); err != nil {
			return err
		}
	}

	s.SetTargetBody(cfg.TargetBody)
	selector := colorscale.NewSelector(colorscale.NewScale(0, 1, colorscale.DefaultSteps))
	ctrl.Selection().RegisterView(selector)

	result := ctrl.Search(ctx)
	fmt.Printf("search: %s\n", result)
	records := s.Trajectories()

	domain := colorscale.DomainOf
	if opts.clip > 0 {
		domain = func(records []models.Record, field string) (float64, float64, bool) {
			return colorscale.RobustDomainOf(records, field, opts.clip)
		}
	}
	if lo, hi, ok := domain(records, opts.colorField); ok {
		selector.SetScale(colorscale.NewScale(lo, hi, colorscale.DefaultSteps))
	}
	if opts.highlight != "" {
		lower, upper, err := parseRange(opts.highlight)
		if err != nil {
			return err
		}
		selector.SetSelection(lower, upper)
	}

	if opts.selectID != 0 {
		picked, ok := findRecord(records, opts.selectID)
		if !ok {
			return fmt.Errorf("trajectory %d is not in the results", opts.selectID)
		}
		if v, ok := picked.Number(opts.colorField); ok {
			selector.SetActiveValues([]float64{v})
		}
		sel := ctrl.SelectTrajectory(ctx, picked)
		if opts.confirm {
			ctrl.Confirm(true)
		}
		fmt.Printf("entries: %s, arcs: %s\n", sel.Entries, sel.Arcs)
	}

	renderTable(os.Stdout, records, opts.colorField, selector)
	fmt.Println()
	renderLegend(os.Stdout, opts.colorField, records, selector)

	if entries := s.Entries(); len(entries) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render(fmt.Sprintf("entries of trajectory %d", opts.selectID)))
		renderTable(os.Stdout, entries, "", colorscale.NewSelector(colorscale.NewScale(0, 1, 1)))
		fmt.Println(arcSummary(s.Arcs()))
	}

	if opts.exportPath != "" {
		data, err := ctrl.Export()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.exportPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
	}
	return ctrl.SaveState(ctx)
}

// waitForReference loads the filter catalog, waiting for the single retry
// when the first attempt fails.
func waitForReference(ctx context.Context, ctrl *explorer.Controller, retryDelay time.Duration) error {
	loaded := make(chan struct{}, 1)
	unsubscribe := ctrl.Store().Subscribe(func(f store.Field) {
		if f == store.FieldReference {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if res := ctrl.Start(ctx); res.Stage != explorer.StageRetryScheduled {
		return nil
	}
	select {
	case <-loaded:
		return nil
	case <-time.After(retryDelay + 30*time.Second):
		return fmt.Errorf("filter catalog did not load")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func findRecord(records []models.Record, id int64) (models.Record, bool) {
	for _, r := range records {
		if rid, ok := r.ID(); ok && rid == id {
			return r, true
		}
	}
	return nil, false
}

func parseRange(text string) (float64, float64, error) {
	lowerText, upperText, ok := strings.Cut(text, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q is not LOWER:UPPER", text)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lowerText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lower bound: %w", err)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(upperText), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid upper bound: %w", err)
	}
	return lower, upper, nil
}
