package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/azblob-go/internal/azure"
	"github.com/tonimelisma/azblob-go/internal/config"
	"github.com/tonimelisma/azblob-go/internal/identity"
	"github.com/tonimelisma/azblob-go/internal/journal"
	"github.com/tonimelisma/azblob-go/internal/transfer"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagAccount    string
	flagContainer  string
	flagWorkers    int
	flagAttempts   int
	flagBandwidth  string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg and resolvedEnv hold the effective configuration loaded by
// PersistentPreRunE, available to all subcommands afterwards.
var (
	resolvedCfg *config.Config
	resolvedEnv config.EnvOverrides
)

// newRootCmd builds and returns the fully-assembled root command with
// all subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "azblob-go",
		Short:   "Azure Blob Storage transfer client",
		Long:    "A resilient parallel upload/download client for Azure Blob Storage.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagAccount, "account", "", "storage account name")
	cmd.PersistentFlags().StringVar(&flagContainer, "container", "", "container name")
	cmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parallel transfer workers")
	cmd.PersistentFlags().IntVar(&flagAttempts, "max-attempts", 0, "attempts per chunk before giving up")
	cmd.PersistentFlags().StringVar(&flagBandwidth, "bandwidth-limit", "", "aggregate bandwidth limit (e.g. 10MB)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override
// chain and stores the result for use by subcommands.
func loadConfig(cmd *cobra.Command) error {
	resolvedEnv = config.ReadEnvOverrides()

	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
		Account:    flagAccount,
		Container:  flagContainer,
	}

	// Pointer fields only when explicitly set, so zero values from the
	// flag defaults never clobber the config file.
	if cmd.Flags().Changed("workers") {
		cli.Workers = &flagWorkers
	}

	if cmd.Flags().Changed("max-attempts") {
		cli.MaxAttempts = &flagAttempts
	}

	if cmd.Flags().Changed("bandwidth-limit") {
		cli.BandwidthLimit = &flagBandwidth
	}

	resolved, err := config.Resolve(resolvedEnv, cli)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	resolvedCfg = resolved

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config
// and CLI flags. Config-file settings provide the baseline; --verbose
// and --quiet override because CLI flags always win. Format "auto"
// picks text on a terminal and JSON otherwise.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	format := "auto"
	if resolvedCfg != nil {
		format = resolvedCfg.Logging.LogFormat

		switch resolvedCfg.Logging.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		if isatty.IsTerminal(os.Stderr.Fd()) {
			handler = slog.NewTextHandler(os.Stderr, opts)
		} else {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
	}

	return slog.New(handler)
}

// buildPolicy creates the retry policy from the configured code sets,
// falling back to the stock classification when neither is set.
func buildPolicy(logger *slog.Logger) *azure.Policy {
	set := azure.DefaultRetrySet()
	if len(resolvedCfg.Retry.TransportCodes) > 0 || len(resolvedCfg.Retry.HTTPCodes) > 0 {
		set = azure.NewRetrySet(resolvedCfg.Retry.TransportCodes, resolvedCfg.Retry.HTTPCodes)
	}

	return azure.NewPolicy(set, logger)
}

// buildCredential assembles the credential from config (identity
// shape) and environment (secret material).
func buildCredential() *identity.Credential {
	return &identity.Credential{
		Bearer:   resolvedEnv.BearerToken,
		Refresh:  resolvedEnv.RefreshToken,
		Secret:   resolvedEnv.ClientSecret,
		Scope:    resolvedCfg.Identity.Scope,
		Resource: resolvedCfg.Identity.Resource,
		ClientID: resolvedCfg.Identity.ClientID,
		Tenant:   resolvedCfg.Identity.Tenant,
	}
}

// transferStack wires the full client stack for a transfer command:
// HTTP client, token manager, retry policy, scheduler, and journal.
type transferStack struct {
	logger    *slog.Logger
	client    *azure.Client
	manager   *identity.Manager
	scheduler *transfer.Scheduler
	journal   *journal.Journal
}

func newTransferStack() (*transferStack, error) {
	logger := buildLogger()
	policy := buildPolicy(logger)
	cred := buildCredential()

	httpClient := azure.NewHTTPClient(resolvedCfg.ConnectTimeout())
	client := azure.NewClient(httpClient, cred, resolvedCfg.Storage.APIVersion, resolvedCfg.ReadTimeout(), logger)

	manager := identity.NewManager(cred, client, policy, logger)
	manager.SetLoginBase(resolvedCfg.Identity.LoginBase)

	limiter, err := transfer.NewBandwidthLimiter(resolvedCfg.Transfers.BandwidthLimit, logger)
	if err != nil {
		return nil, err
	}

	jnl, err := journal.Open(resolvedCfg.Transfers.JournalPath, logger)
	if err != nil {
		return nil, err
	}

	return &transferStack{
		logger:    logger,
		client:    client,
		manager:   manager,
		scheduler: transfer.NewScheduler(client, policy, limiter, logger),
		journal:   jnl,
	}, nil
}

func (s *transferStack) close() {
	if err := s.journal.Close(); err != nil {
		s.logger.Warn("closing journal", slog.String("error", err.Error()))
	}
}

// blobRef builds the target blob reference, requiring account and
// container to be configured.
func blobRef(name string) (azure.BlobRef, error) {
	if resolvedCfg.Storage.Account == "" {
		return azure.BlobRef{}, fmt.Errorf("no storage account configured (set storage.account or --account)")
	}

	if resolvedCfg.Storage.Container == "" {
		return azure.BlobRef{}, fmt.Errorf("no container configured (set storage.container or --container)")
	}

	return azure.BlobRef{
		Account:   resolvedCfg.Storage.Account,
		Container: resolvedCfg.Storage.Container,
		Name:      name,
	}, nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
