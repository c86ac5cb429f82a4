package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shaiso/n8n-deploy/internal/config"
	"github.com/shaiso/n8n-deploy/internal/n8n"
	"github.com/shaiso/n8n-deploy/internal/telemetry"
)

// App — один запуск CLI.
//
// Config и Client создаются в PersistentPreRunE, после парсинга флагов,
// и дальше не меняются.
type App struct {
	version string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	metrics *telemetry.Metrics

	cfg    *config.Config
	client *n8n.Client
}

// NewApp создаёт App.
func NewApp(version string, stdout, stderr io.Writer, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		version: version,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		metrics: telemetry.NewMetrics(),
	}
}

// Config возвращает загруженную конфигурацию.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Client возвращает клиент n8n.
func (a *App) Client() *n8n.Client {
	return a.client
}

// Output возвращает Output с учётом флага --json.
func (a *App) Output() *Output {
	jsonMode := a.cfg != nil && a.cfg.JSON
	return NewOutput(jsonMode, a.stdout, a.stderr)
}

// RootCmd собирает дерево команд.
func (a *App) RootCmd() *cobra.Command {
	deployCmd := NewDeployCmd(a.Client, a.Output, a.Config)

	rootCmd := &cobra.Command{
		Use:   "n8n-deploy [command]",
		Short: "Deploy and manage n8n workflows",
		Long: `n8n-deploy pushes workflow documents to an n8n instance and manages
their activation through the n8n Public API.

Without a command the default workflow is deployed.

Environment:
  N8N_API_KEY      n8n API key (required)
  N8N_API_URL      n8n instance URL (default ` + config.DefaultAPIURL + `)`,
		Example: `  n8n-deploy
  n8n-deploy deploy workflows/my-workflow.json
  n8n-deploy list --active=true
  n8n-deploy activate 123`,
		Version:           a.version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return newUsageError(cmd, "unknown command: %s", args[0])
			}
			return nil
		},
		RunE: deployCmd.RunE,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return newUsageError(cmd, "%v", err)
	})

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		deployCmd,
		NewListCmd(a.Client, a.Output),
		NewActivateCmd(a.Client, a.Output),
		NewDeactivateCmd(a.Client, a.Output),
	)

	return rootCmd
}

// Run выполняет CLI и возвращает код выхода.
func (a *App) Run(ctx context.Context, args []string) int {
	// cobra подставляет os.Args, если args == nil
	if args == nil {
		args = []string{}
	}

	// без N8N_API_KEY не выполняется ничего, включая help и разбор команды
	if err := checkConfig(args); err != nil {
		a.report(err)
		return 1
	}

	rootCmd := a.RootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)

	if a.cfg != nil {
		if werr := a.metrics.WriteTextfile(a.cfg.MetricsFile); werr != nil {
			a.logger.Warn("failed to write metrics file", "path", a.cfg.MetricsFile, "error", werr)
		}
	}

	if err == nil {
		return 0
	}

	a.report(err)
	return 1
}

// setup загружает конфигурацию и создаёт клиент до запуска любой команды.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	logger := telemetry.WithCommand(telemetry.WithRequestID(a.logger, requestID), cmd.Name())

	a.cfg = cfg
	a.logger = logger
	a.client = n8n.NewClient(cfg.APIURL, cfg.APIKey,
		n8n.WithTransport(a.metrics.InstrumentRoundTripper(nil)),
		n8n.WithTimeout(cfg.Timeout),
		n8n.WithLogger(logger),
		n8n.WithRequestID(requestID),
		n8n.WithUserAgent("n8n-deploy/"+a.version),
		n8n.WithOperationObserver(a.metrics.ObserveOperation),
	)

	cmd.SetContext(telemetry.WithLogger(cmd.Context(), logger))

	logger.Debug("config loaded", "api_url", cfg.APIURL, "workflow_dir", cfg.WorkflowDir)
	return nil
}

// checkConfig загружает конфигурацию по глобальным флагам из args,
// не зная о командах: неизвестные флаги и аргументы пропускаются.
func checkConfig(args []string) error {
	flags := pflag.NewFlagSet("n8n-deploy", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.ParseErrorsAllowlist.UnknownFlags = true
	config.RegisterFlags(flags)
	flags.BoolP("help", "h", false, "")
	flags.Bool("version", false, "")

	// ошибки разбора покажет cobra, если ключ на месте
	_ = flags.Parse(args)

	_, err := config.Load(flags)
	return err
}

// report выводит ошибку пользователю.
func (a *App) report(err error) {
	out := NewOutput(false, a.stdout, a.stderr)
	out.Error(err.Error())

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) && cfgErr.Hint != "" {
		fmt.Fprintln(a.stderr, "  "+cfgErr.Hint)
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) && usageErr.Usage != "" {
		fmt.Fprintln(a.stderr)
		fmt.Fprint(a.stderr, usageErr.Usage)
	}

	a.logger.Debug("command failed", "error", err)
}
