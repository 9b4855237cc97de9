package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quay/cvssmerge/cvss"
	"github.com/quay/cvssmerge/reconcile"
	"github.com/quay/cvssmerge/selector"
)

// InputDocument is the format read by the evaluate subcommand.
type inputDocument struct {
	Vulnerabilities []inputVulnerability `json:"vulnerabilities"`
}

type inputVulnerability struct {
	ID      string        `json:"id"`
	Vectors []inputVector `json:"vectors"`
}

type inputVector struct {
	Vector string `json:"vector"`
	// Source is the "entity/role/authority" form of a selector.Source. It's
	// ignored for assessments.
	Source   string          `json:"source"`
	Override selector.Intent `json:"override"`
}

type outputDocument struct {
	Reports []*reconcile.Report `json:"reports"`
}

func newEvaluateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Reconcile the vectors published for vulnerabilities",
		Long: `Evaluate reads a JSON document of vulnerabilities and their tagged vectors
from the named file, or standard input, and writes a JSON report for each
vulnerability. For example:

  {"vulnerabilities": [{
    "id": "CVE-2024-0001",
    "vectors": [
      {"vector": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", "source": "NVD/CNA/NVD"},
      {"vector": "CVSS:3.1/C:L/I:N/A:N", "override": "LOWER"}
    ]
  }]}

Vectors with an override are assessments: REPLACE, LOWER, HIGHER,
LOWER_METRIC or HIGHER_METRIC.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := loadEngine(v)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			in, err := readInput(r)
			if err != nil {
				return err
			}

			res, err := e.EvaluateAll(ctx, in)
			if err != nil {
				return err
			}
			var out outputDocument
			for _, id := range slices.Sorted(maps.Keys(res)) {
				out.Reports = append(out.Reports, res[id])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if compact, _ := cmd.Flags().GetBool("compact"); !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(&out)
		},
	}
	cmd.Flags().Bool("compact", false, "write compact JSON")
	return cmd
}

// ReadInput decodes an inputDocument and builds the selector.Input for every
// vulnerability.
func readInput(r io.Reader) (map[string]selector.Input, error) {
	var doc inputDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	out := make(map[string]selector.Input, len(doc.Vulnerabilities))
	for i, vuln := range doc.Vulnerabilities {
		id := strings.TrimSpace(vuln.ID)
		if id == "" {
			return nil, fmt.Errorf("vulnerabilities[%d]: missing id", i)
		}
		if _, ok := out[id]; ok {
			return nil, fmt.Errorf("vulnerabilities[%d]: duplicate id %q", i, id)
		}
		in := make(selector.Input, 0, len(vuln.Vectors))
		for j, iv := range vuln.Vectors {
			vec, err := cvss.Parse(iv.Vector)
			if err != nil {
				return nil, fmt.Errorf("%s: vectors[%d]: %w", id, j, err)
			}
			if iv.Override != selector.None {
				in = append(in, selector.Assessment(vec, iv.Override))
				continue
			}
			src, err := selector.ParseSource(iv.Source)
			if err != nil {
				return nil, fmt.Errorf("%s: vectors[%d]: %w", id, j, err)
			}
			in = append(in, selector.Tagged{Vector: vec, Source: src})
		}
		out[id] = in
	}
	return out, nil
}
