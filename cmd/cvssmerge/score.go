package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/severity"
)

type scoreLine struct {
	Vector      cvss.Vector `json:"vector"`
	Version     string      `json:"version"`
	Complete    bool        `json:"complete"`
	BaseScore   float64     `json:"base_score"`
	Score       float64     `json:"score"`
	Qualitative string      `json:"qualitative"`
	Severity    string      `json:"severity"`
}

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [vector...]",
		Short: "Print the score of CVSS vectors",
		Long: `Score parses each vector argument, or each line of standard input if there
are no arguments, and prints its canonical form, version, score and
severity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine(v)
			if err != nil {
				return err
			}
			rs := e.Ranges
			if len(rs) == 0 {
				rs = severity.DefaultRanges
			}
			if len(args) == 0 {
				args, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			lines := make([]scoreLine, 0, len(args))
			for _, a := range args {
				vec, err := cvss.Parse(a)
				if err != nil {
					return err
				}
				l := scoreLine{
					Vector:      vec,
					Version:     vec.Version().String(),
					Complete:    vec.Complete(),
					BaseScore:   vec.BaseScore(),
					Score:       vec.Score(),
					Qualitative: cvss.QualitativeScore(vec).String(),
				}
				r, err := rs.Classify(l.Score)
				if err != nil {
					return err
				}
				l.Severity = r.Label
				lines = append(lines, l)
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(lines)
			}
			tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(tw, "VECTOR\tVERSION\tSCORE\tSEVERITY")
			for _, l := range lines {
				fmt.Fprintf(tw, "%v\t%s\t%.1f\t%s\n", l.Vector, l.Version, l.Score, l.Severity)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		out = append(out, l)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading vectors: %w", err)
	}
	return out, nil
}
