package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/pyscry/internal/config"
	"github.com/Sumatoshi-tech/pyscry/pkg/aggregate"
	"github.com/Sumatoshi-tech/pyscry/pkg/distindex"
	"github.com/Sumatoshi-tech/pyscry/pkg/observability"
	"github.com/Sumatoshi-tech/pyscry/pkg/project"
	"github.com/Sumatoshi-tech/pyscry/pkg/pyimports"
	"github.com/Sumatoshi-tech/pyscry/pkg/render"
	"github.com/Sumatoshi-tech/pyscry/pkg/scan"
	"github.com/Sumatoshi-tech/pyscry/pkg/version"
	"github.com/Sumatoshi-tech/pyscry/pkg/walker"
)

const (
	defaultRoot    = "."
	outputFilePerm = 0o644
	envVirtualEnv  = "VIRTUAL_ENV"
)

var (
	// ErrInvalidJobs is returned when --jobs is below 1.
	ErrInvalidJobs = errors.New("--jobs must be at least 1")
	// ErrNoPythonFiles is returned when the roots contain no Python source.
	ErrNoPythonFiles = errors.New("no Python source files found")
	// ErrManifestMismatch is returned by --check when the file is stale.
	ErrManifestMismatch = errors.New("manifest is out of date")
	// ErrCheckWithOutput is returned when --check and --output are combined.
	ErrCheckWithOutput = errors.New("--check and --output cannot be used together")
)

// scanDeps are the process-level collaborators a scan reaches for.
type scanDeps struct {
	discover func(ctx context.Context, opts distindex.DiscoverOptions) ([]string, error)
	getenv   func(key string) string
}

func defaultScanDeps() scanDeps {
	return scanDeps{discover: distindex.Discover, getenv: os.Getenv}
}

// ScanCommand holds the flag values of a scan invocation.
type ScanCommand struct {
	configPath     string
	format         string
	pretty         bool
	output         string
	jobs           int
	versionStyle   string
	exclude        []string
	ignore         []string
	verbose        bool
	sitePackages   []string
	python         string
	mapping        string
	check          string
	includeScripts bool
	noColor        bool
	logJSON        bool

	deps scanDeps
}

func buildScanCommand(use string, deps scanDeps) *cobra.Command {
	sc := &ScanCommand{deps: deps}

	cmd := &cobra.Command{
		Use:   use,
		Short: "Scan Python sources and print their dependencies",
		Args:  cobra.ArbitraryArgs,
		RunE:  sc.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&sc.configPath, "config", "", "Config file (default: .pyscry.yaml in the working directory or $HOME)")
	flags.StringVarP(&sc.format, "format", "f", config.DefaultFormat,
		"Output format: "+strings.Join(render.Formats(), ", "))
	flags.BoolVar(&sc.pretty, "pretty", config.DefaultPretty, "Indent JSON output")
	flags.StringVarP(&sc.output, "output", "o", "", "Write the manifest to this file instead of stdout")
	flags.IntVarP(&sc.jobs, "jobs", "j", config.DefaultJobs, "Number of files parsed in parallel")
	flags.StringVar(&sc.versionStyle, "version-style", config.DefaultVersionStyle,
		"Version constraint style: "+strings.Join(render.Styles(), ", "))
	flags.StringArrayVarP(&sc.exclude, "exclude", "x", nil, "Glob of files to skip (repeatable)")
	flags.StringArrayVar(&sc.ignore, "ignore", nil, "Module name to leave out of the manifest (repeatable)")
	flags.BoolVarP(&sc.verbose, "verbose", "v", false, "Debug logging and a detailed diagnostics table")
	flags.StringArrayVar(&sc.sitePackages, "site-packages", nil,
		"site-packages directory to index (repeatable; disables discovery)")
	flags.StringVar(&sc.python, "python", config.DefaultPython, "Interpreter asked for its site-packages")
	flags.StringVar(&sc.mapping, "mapping", "", "YAML file of module: distribution[==version] overrides")
	flags.StringVar(&sc.check, "check", "", "Compare the manifest with this file and fail when they differ")
	flags.BoolVar(&sc.includeScripts, "include-scripts", config.DefaultIncludeScripts,
		"Also scan extension-less files with a Python shebang")
	flags.BoolVar(&sc.noColor, "no-color", false, "Disable colored diagnostics")
	flags.BoolVar(&sc.logJSON, "log-json", config.DefaultLogJSON, "Emit JSON log records")

	return cmd
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := sc.resolveConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := sc.initObservability(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := args
	if len(roots) == 0 {
		roots = []string{defaultRoot}
	}

	res, err := sc.scan(ctx, cfg, roots, providers)
	if err != nil {
		return err
	}

	manifest, err := sc.render(ctx, cfg, res.Entries, providers.Tracer)
	if err != nil {
		return err
	}

	err = render.Diagnostics(cmd.ErrOrStderr(),
		render.Summary{Files: res.Files, Bytes: res.Bytes, Entries: len(res.Entries)},
		res.Diagnostics,
		render.DiagnosticsOptions{Verbose: sc.verbose, NoColor: sc.noColor})
	if err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}

	return sc.emit(cmd.OutOrStdout(), cfg, manifest)
}

// resolveConfig loads the config file and lets explicitly set flags win.
func (sc *ScanCommand) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if sc.check != "" && sc.output != "" {
		return nil, ErrCheckWithOutput
	}

	cfg, err := config.LoadConfig(sc.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("format") {
		cfg.Format = sc.format
	}

	if flags.Changed("pretty") {
		cfg.Pretty = sc.pretty
	}

	if flags.Changed("jobs") {
		if sc.jobs < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidJobs, sc.jobs)
		}

		cfg.Jobs = sc.jobs
	}

	if flags.Changed("version-style") {
		cfg.VersionStyle = sc.versionStyle
	}

	if flags.Changed("python") {
		cfg.Python = sc.python
	}

	if flags.Changed("mapping") {
		cfg.Mapping = sc.mapping
	}

	if flags.Changed("include-scripts") {
		cfg.IncludeScripts = sc.includeScripts
	}

	if flags.Changed("log-json") {
		cfg.Log.JSON = sc.logJSON
	}

	if flags.Changed("site-packages") {
		cfg.SitePackages = sc.sitePackages
	}

	cfg.Exclude = append(cfg.Exclude, sc.exclude...)
	cfg.Ignore = append(cfg.Ignore, sc.ignore...)

	if sc.verbose {
		cfg.Log.Level = slog.LevelDebug.String()
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (sc *ScanCommand) initObservability(cfg *config.Config, logWriter io.Writer) (observability.Providers, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg := observability.FromEnv(observability.DefaultConfig())
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Log.JSON
	obsCfg.LogWriter = logWriter

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func (sc *ScanCommand) scan(
	ctx context.Context, cfg *config.Config, roots []string, providers observability.Providers,
) (scan.Result, error) {
	logger := providers.Logger

	walked, err := sc.walk(ctx, cfg, roots, providers.Tracer)
	if err != nil {
		return scan.Result{}, err
	}

	idx, err := sc.buildIndex(ctx, cfg, providers)
	if err != nil {
		return scan.Result{}, err
	}

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return scan.Result{}, err
	}

	extractor, err := pyimports.NewExtractor(pyimports.Options{
		Local:       walked.Local,
		Ignore:      cfg.Ignore,
		MaxFileSize: maxSize,
	})
	if err != nil {
		return scan.Result{}, fmt.Errorf("create extractor: %w", err)
	}

	own, err := project.Names(roots)
	if err != nil {
		logger.WarnContext(ctx, "ignoring project metadata", "error", err)
	}

	metrics, err := observability.NewScanMetrics(providers.Meter)
	if err != nil {
		return scan.Result{}, fmt.Errorf("init metrics: %w", err)
	}

	return scan.Run(ctx, walked.Files, scan.Deps{
		Extractor: extractor,
		Index:     idx,
		Jobs:      cfg.Jobs,
		Exclude:   own,
		Logger:    logger,
		Tracer:    providers.Tracer,
		Metrics:   metrics,
	})
}

func (sc *ScanCommand) walk(
	ctx context.Context, cfg *config.Config, roots []string, tracer trace.Tracer,
) (walker.Result, error) {
	ctx, span := tracer.Start(ctx, "pyscry.walk")
	defer span.End()

	walked, err := walker.Collect(ctx, roots, walker.Options{
		Excludes:       cfg.Exclude,
		SkipVendor:     cfg.SkipVendor,
		IncludeScripts: cfg.IncludeScripts,
	})
	if err != nil {
		span.RecordError(err)

		return walker.Result{}, err
	}

	span.SetAttributes(attribute.Int("pyscry.files", len(walked.Files)))

	if len(walked.Files) == 0 {
		return walker.Result{}, fmt.Errorf("%w under %s", ErrNoPythonFiles, strings.Join(roots, ", "))
	}

	return walked, nil
}

func (sc *ScanCommand) buildIndex(
	ctx context.Context, cfg *config.Config, providers observability.Providers,
) (*distindex.Index, error) {
	ctx, span := providers.Tracer.Start(ctx, "pyscry.index.build")
	defer span.End()

	dirs, err := sc.deps.discover(ctx, distindex.DiscoverOptions{
		SitePackages: cfg.SitePackages,
		VirtualEnv:   sc.deps.getenv(envVirtualEnv),
		Python:       cfg.Python,
		Logger:       providers.Logger,
	})
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("%w: %w", distindex.ErrIndexBuild, err)
	}

	opts := distindex.BuildOptions{Logger: providers.Logger}

	if cfg.Mapping != "" {
		opts.Aliases, err = distindex.LoadMapping(cfg.Mapping)
		if err != nil {
			return nil, err
		}
	}

	idx, err := distindex.Build(ctx, dirs, opts)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(
		attribute.StringSlice("pyscry.site_packages", dirs),
		attribute.Int("pyscry.distributions", idx.Distributions()),
	)

	providers.Logger.DebugContext(ctx, "module index built",
		"site_packages", dirs,
		"distributions", idx.Distributions(),
		"modules", idx.Modules())

	return idx, nil
}

func (sc *ScanCommand) render(
	ctx context.Context, cfg *config.Config, entries []aggregate.Entry, tracer trace.Tracer,
) (string, error) {
	_, span := tracer.Start(ctx, "pyscry.render")
	defer span.End()

	return render.Render(entries, render.Options{
		Format: cfg.Format,
		Style:  cfg.VersionStyle,
		Pretty: cfg.Pretty,
	})
}

// emit writes, or with --check compares, the rendered manifest.
func (sc *ScanCommand) emit(stdout io.Writer, cfg *config.Config, manifest string) error {
	if sc.check != "" {
		return checkManifest(stdout, sc.check, cfg.Format, manifest)
	}

	if sc.output != "" {
		return render.WriteFileAtomic(sc.output, []byte(manifest), outputFilePerm)
	}

	_, err := io.WriteString(stdout, manifest)

	return err
}

func checkManifest(w io.Writer, path, format, manifest string) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if sameManifest(format, existing, manifest) {
		return nil
	}

	_, err = io.WriteString(w, render.Diff(string(existing), manifest))
	if err != nil {
		return err
	}

	return fmt.Errorf("%w: %s", ErrManifestMismatch, path)
}

// sameManifest compares JSON manifests by content so formatting differences
// do not count.
func sameManifest(format string, existing []byte, manifest string) bool {
	if format != render.FormatJSON {
		return string(existing) == manifest
	}

	want, err := render.ParseJSON(existing)
	if err != nil {
		return false
	}

	got, err := render.ParseJSON([]byte(manifest))
	if err != nil {
		return false
	}

	return slices.Equal(want, got)
}
