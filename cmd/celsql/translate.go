package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/policyql/celsql"
	"github.com/policyql/celsql/internal/astjson"
)

// dialectTitle renders a dialect name for a log line the way cmd/cmd.go
// titles user-facing strings, e.g. "postgresql" -> "Postgresql".
var dialectTitle = cases.Title(language.English)

func newTranslateCmd() *cobra.Command {
	var dialectFlag, modeFlag, outFormat string

	cmd := &cobra.Command{
		Use:   "translate <expr.json>",
		Short: "Compile a pre-parsed CEL expression document into dialect-valid SQL",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			raw, err := afero.ReadFile(inputFS, args[0])
			if err != nil {
				exitErr(fmt.Errorf("reading %s: %w", args[0], err))
			}
			root, registry, err := astjson.Decode(raw)
			if err != nil {
				exitErr(err)
			}
			cfg, err := loadConfig(dialectFlag, modeFlag)
			if err != nil {
				exitErr(err)
			}
			log.Debugw("translating", "dialect", dialectTitle.String(cfg.Dialect), "mode", cfg.Mode)
			art, err := celsql.Translate(root, registry, cfg)
			if err != nil {
				log.Warnw("translation rejected", "error", err)
				exitErr(err)
			}
			printArtifact(art, outFormat)
		},
	}

	cmd.Flags().StringVar(&dialectFlag, "dialect", "", "override the config's dialect (postgresql, mysql, sqlite, duckdb, bigquery)")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "override the config's mode (inline, parameterized)")
	cmd.Flags().StringVar(&outFormat, "format", "json", "output format: json or sql")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var dialectFlag string

	cmd := &cobra.Command{
		Use:   "explain <expr.json>",
		Short: "Run only the index advisor and print recommendations, without compiling SQL",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			raw, err := afero.ReadFile(inputFS, args[0])
			if err != nil {
				exitErr(fmt.Errorf("reading %s: %w", args[0], err))
			}
			root, registry, err := astjson.Decode(raw)
			if err != nil {
				exitErr(err)
			}
			cfg, err := loadConfig(dialectFlag, "")
			if err != nil {
				exitErr(err)
			}
			cfg.AdviseOnly = true
			art, err := celsql.Translate(root, registry, cfg)
			if err != nil {
				exitErr(err)
			}
			printArtifact(art, "json")
		},
	}
	cmd.Flags().StringVar(&dialectFlag, "dialect", "", "override the config's dialect")
	return cmd
}

func printArtifact(art celsql.Artifact, format string) {
	if format == "sql" {
		fmt.Println(art.SQL)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(art); err != nil {
		log.Errorw("encoding artifact", "error", err)
		os.Exit(1)
	}
}
