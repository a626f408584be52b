package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/policyql/celsql"
)

var (
	cfgFile  string
	logLevel string
	log      *zap.SugaredLogger

	// inputFS is the filesystem every file read in this binary goes
	// through, grounded on serv/config.go's ReadInConfigFS(configFile,
	// fs afero.Fs): production always uses the real OS filesystem, but
	// routing every read through afero.Fs keeps the CLI's file I/O
	// swappable for an in-memory one in tests.
	inputFS afero.Fs = afero.NewOsFs()
)

// newRootCmd builds the cobra command tree, grounded on cmd/cmd.go: a
// persistent --config flag resolved through viper, and a zap logger
// configured once before any subcommand runs.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "celsql",
		Short: "Compile CEL expressions into dialect-valid SQL WHERE-clause fragments",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = celsql.NewLoggerAtLevel(logLevel).Sugar()
		},
	}
	cobra.EnableCommandSorting = false

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml/json/toml) with dialect/mode/limits defaults")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "CLI log level: debug, info, warn, error")

	root.AddCommand(newTranslateCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig resolves a celsql.Config from defaults, an optional config
// file (via viper, the same loader cmd/cmd.go uses for its own yaml
// config), and explicit CLI flag overrides, in that priority order
// (flags win).
func loadConfig(dialectFlag, modeFlag string) (celsql.Config, error) {
	cfg := celsql.DefaultConfig()

	if cfgFile != "" {
		v := viper.New()
		v.SetFs(inputFS)
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		if d := v.GetString("dialect"); d != "" {
			cfg.Dialect = d
		}
		if m := v.GetString("mode"); m != "" {
			cfg.Mode = m
		}
		if n := v.GetInt("max_depth"); n > 0 {
			cfg.MaxDepth = n
		}
		if n := v.GetInt("max_output_length"); n > 0 {
			cfg.MaxOutputLength = n
		}
		if n := v.GetInt("max_comprehension_nesting"); n > 0 {
			cfg.MaxComprehensionNesting = n
		}
		if n := v.GetInt("max_pattern_length"); n > 0 {
			cfg.MaxPatternLength = n
		}
		if n := v.GetInt("max_identifier_length"); n > 0 {
			cfg.MaxIdentifierLength = n
		}
		if n := v.GetInt("max_bytes_literal"); n > 0 {
			cfg.MaxBytesLiteral = n
		}
	}

	if dialectFlag != "" {
		cfg.Dialect = dialectFlag
	}
	if modeFlag != "" {
		cfg.Mode = modeFlag
	}
	return cfg, nil
}

func exitErr(err error) {
	log.Errorw("celsql: translation failed", "error", err)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
