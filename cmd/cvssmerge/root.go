package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quay/cvssmerge/config"
	"github.com/quay/cvssmerge/internal/log"
	"github.com/quay/cvssmerge/reconcile"
)

// EnvPrefix is the prefix for environment variables overriding flags, e.g.
// CVSSMERGE_POLICIES.
const envPrefix = "CVSSMERGE"

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "cvssmerge",
		Short: "Score and reconcile CVSS vectors",
		Long: `cvssmerge scores CVSS v2, v3.x and v4 vectors and reconciles the vectors
published for a vulnerability by several sources into a single vector.

Every flag may also be set with an environment variable named after it,
e.g. CVSSMERGE_POLICIES=V4,LATEST.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v.SetEnvPrefix(envPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			return setupLogging(cmd.ErrOrStderr(), v)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringP("config", "c", "", "engine configuration file (YAML or JSON)")
	fs.BoolP("verbose", "v", false, "enable debug logging")
	fs.String("log-level", "warn", "minimum level logged (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
	fs.StringSlice("policies", nil, "ordered version policies, overriding the configuration file")
	fs.String("ranges", "", "severity ranges as label:color:min:max;..., overriding the configuration file")
	fs.Int("concurrency", 0, "number of vulnerabilities evaluated at once (0 means GOMAXPROCS)")
	for _, n := range []string{"config", "verbose", "log-level", "log-format", "policies", "ranges", "concurrency"} {
		if err := v.BindPFlag(n, fs.Lookup(n)); err != nil {
			panic(fmt.Sprintf("programmer error: %v", err))
		}
	}

	cmd.AddCommand(
		newScoreCmd(v),
		newEvaluateCmd(v),
	)
	return cmd
}

func setupLogging(w io.Writer, v *viper.Viper) error {
	opts := log.Options{
		Format: v.GetString("log-format"),
		Level:  v.GetString("log-level"),
	}
	if v.GetBool("verbose") {
		opts.Level = "debug"
	}
	l, err := log.New(w, opts)
	if err != nil {
		return err
	}
	slog.SetDefault(l)
	return nil
}

// LoadEngine builds the Engine described by the configuration file and flags
// in "v". Flags override the file.
func loadEngine(v *viper.Viper) (*reconcile.Engine, error) {
	doc := new(config.Document)
	if name := v.GetString("config"); name != "" {
		var err error
		doc, err = config.Load(name)
		if err != nil {
			return nil, err
		}
	}
	if v.IsSet("policies") {
		doc.Policies = splitList(v.GetStringSlice("policies"))
	}
	if v.IsSet("ranges") {
		doc.Ranges = v.GetString("ranges")
	}
	if v.IsSet("concurrency") {
		doc.Concurrency = v.GetInt("concurrency")
	}
	return config.Compile(doc)
}

// SplitList flattens comma-separated members of "ss", which is how a list
// arrives from the environment.
func splitList(ss []string) []string {
	var out []string
	for _, s := range ss {
		for f := range strings.SplitSeq(s, ",") {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}
