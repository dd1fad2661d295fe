package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RetendoNetwork/SSSL/internal/audit"
	"github.com/RetendoNetwork/SSSL/internal/config"
	"github.com/RetendoNetwork/SSSL/internal/observability"
)

// defaultEnvFile is read when present and --env-file is not given.
const defaultEnvFile = ".env"

// app carries the state shared by every command of one invocation.
type app struct {
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string
	noColor   bool

	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":  "logger.level",
	"log-format": "logger.format",
	"ca-cert":    "forge.ca_cert_path",
	"ca-format":  "forge.ca_cert_format",
	"ca-key":     "forge.ca_private_key_path",
	"site-key":   "forge.site_private_key_path",
	"csr":        "forge.csr_path",
	"cn":         "forge.common_name",
	"out":        "forge.output_dir",
	"host":       "server.host",
	"port":       "server.port",
	"audit-log":  "audit.file",
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sssl",
		Short: "SSSL - forge a certificate chain from a trusted root CA",
		Long: `SSSL clones a root CA certificate onto a new RSA key, keeping its subject,
serial number, validity and extensions, then issues a site certificate for a
common name from the cloned CA.

Examples:
  # Forge a chain from a DER root CA, generating every key
  sssl forge --ca-cert root.der --cn "*.example.com" --out ./out

  # Reuse existing keys and a CSR
  sssl forge --ca-cert root.pem --ca-format pem --ca-key ca.key \
    --site-key site.key --csr site.csr --cn "*.example.com"

  # Inspect the result
  sssl inspect out/cert-chain.pem`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file of SSSL_* variables (default ./.env if present)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("audit-log", "", "append a hash-chained audit log of forging runs to this file")

	rootCmd.AddCommand(
		newForgeCmd(a),
		newInspectCmd(a),
		newServeCmd(a),
		newAuditCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// initialize builds the configuration and the logger. Precedence is flags,
// environment, YAML file, .env, defaults.
func (a *app) initialize(cmd *cobra.Command) error {
	v := config.NewViper()

	envFile, required := a.envFile, true
	if envFile == "" {
		envFile, required = defaultEnvFile, false
	}
	if err := config.LoadDotEnv(v, envFile, required); err != nil {
		return err
	}
	if err := config.ReadConfigFile(v, a.cfgFile); err != nil {
		return err
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
	if err != nil {
		return err
	}

	a.v, a.cfg, a.logger = v, cfg, logger
	logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config_file", v.ConfigFileUsed()))
	return nil
}

// openAudit opens the configured audit log, or a no-op writer when none is
// configured.
func (a *app) openAudit() (audit.Writer, error) {
	if a.cfg.Audit.File == "" {
		return audit.NopWriter{}, nil
	}
	w, err := audit.NewFileWriter(a.cfg.Audit.File)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("audit log opened", zap.String("path", w.Path()), zap.String("last_hash", w.LastHash()))
	return w, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "sssl %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}
