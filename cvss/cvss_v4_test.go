package cvss

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"

	gocvss40 "github.com/pandatix/go-cvss/40"
)

func TestV4(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		tcs := []ErrorTestcase{
			{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/SC:N/VI:L/SI:N/VA:N/SA:N"},
			{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N/E:X"},
			{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N/FOO:BAR"},
			{Vector: "CVSS:4.0", Error: true},
			{Vector: "CVSS:4.1/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N", Error: true},
			{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA", Error: true},
		}
		Error(t, tcs)
	})

	t.Run("Roundtrip", func(t *testing.T) {
		vecs := []string{
			"CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N",
			"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/E:U",
			"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/E:P/CR:L/MAV:A/MSI:S",
			"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/S:P/AU:Y/R:U/V:D/RE:M/U:Amber",
			"CVSS:4.0/AV:P/AC:H/AT:P/PR:H/UI:A/VC:N/VI:N/VA:N/SC:N/SI:N/SA:N/U:Clear",
		}
		Roundtrip(t, vecs)
	})

	scores := []ScoreTestcase{
		{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N", Score: 9.3},
		{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:H/SI:H/SA:H", Score: 10},
		{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N", Score: 5.1},
		{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:N/VI:L/VA:N/SC:N/SI:N/SA:N", Score: 6.9},
		{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/E:U", Score: 8.1},
	}
	t.Run("Score", func(t *testing.T) {
		tcs := append(scores,
			ScoreTestcase{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/MSI:S", Score: 10},
			ScoreTestcase{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/S:P/AU:Y/U:Red", Score: 9.3},
			ScoreTestcase{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:N/VI:N/VA:N/SC:N/SI:N/SA:N", Score: 0},         // No impact
			ScoreTestcase{Vector: "CVSS:4.0/AV:N/AC:L/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N", Score: 0},              // Incomplete
			ScoreTestcase{Vector: "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:N/VI:N/VA:N/SC:N/SI:N/SA:N/MVC:H", Score: 8.7}, // Modified impact
		)
		Score(t, tcs)
	})

	t.Run("Oracle", func(t *testing.T) {
		for _, tc := range scores {
			t.Run("", func(t *testing.T) {
				ref, err := gocvss40.ParseVector(tc.Vector)
				if err != nil {
					t.Fatal(err)
				}
				if got, want := MustParse(tc.Vector).Score(), ref.Score(); got != want {
					t.Errorf("%s: got: %v, want: %v", tc.Vector, got, want)
				}
			})
		}

		t.Run("Generated", func(t *testing.T) {
			const n = 10000
			var compared, failed int
			for _, vec := range randomVectors(Version40, 3, n, 0.3) {
				v := vec.(V4)
				ref, err := gocvss40.ParseVector(v.String())
				if err != nil {
					t.Fatalf("%v: %v", v, err)
				}
				want := ref.Score()
				// The no-impact check and the rounding differ, see the
				// Divergence tests.
				if v.Score() == 0 || want == 0 {
					continue
				}
				compared++
				if got := math.Round(v.rawScore()*10) / 10; got != want {
					failed++
					t.Errorf("%v: got: %v, want: %v", v, got, want)
				}
				if failed > 10 {
					t.Fatal("too many failures")
				}
			}
			t.Logf("compared %d of %d vectors", compared, n)
			if compared < n*9/10 {
				t.Errorf("compared only %d of %d vectors", compared, n)
			}
		})
	})

	t.Run("Divergence", func(t *testing.T) {
		t.Run("ModifiedImpact", func(t *testing.T) {
			// Modified impact metrics count when deciding if there's any
			// impact at all, so these two score the same.
			const (
				none = "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:N/VI:N/VA:N/SC:N/SI:N/SA:N/MVC:L"
				low  = "CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:L/VI:N/VA:N/SC:N/SI:N/SA:N/MVC:L"
			)
			got, want := MustParse(none).Score(), MustParse(low).Score()
			if got != want {
				t.Errorf("got: %v, want: %v", got, want)
			}
			if got == 0 {
				t.Error("modified impact ignored")
			}
			ref, err := gocvss40.ParseVector(none)
			if err != nil {
				t.Fatal(err)
			}
			if got := ref.Score(); got != 0 {
				t.Errorf("reference implementation: got: %v, want: 0", got)
			}
		})
		t.Run("Rounding", func(t *testing.T) {
			// Scores that land just under a midpoint due to floating point
			// error round up, as the FIRST calculator does.
			f := math.Nextafter(5.65, 0)
			if got, want := v4Round(f), 5.7; got != want {
				t.Errorf("got: %v, want: %v", got, want)
			}
			if got, want := math.Round(f*10)/10, 5.6; got != want {
				t.Errorf("without epsilon: got: %v, want: %v", got, want)
			}
		})
	})

	t.Run("Macrovector", func(t *testing.T) {
		tt := []struct {
			Vector string
			Want   string
		}{
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N", "000200"},
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:H/SI:H/SA:H", "000100"},
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/E:U", "000220"},
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/MSI:S", "000000"},
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N", "102201"},
			{"CVSS:4.0/AV:P/AC:H/AT:P/PR:H/UI:A/VC:L/VI:N/VA:N/SC:N/SI:N/SA:N/E:P/CR:L", "212211"},
		}
		for _, tc := range tt {
			t.Run(tc.Want, func(t *testing.T) {
				v, err := ParseV4(tc.Vector)
				if err != nil {
					t.Fatal(err)
				}
				if got, want := v.macrovector().String(), tc.Want; got != want {
					t.Errorf("got: %q, want: %q", got, want)
				}
			})
		}
	})

	t.Run("BaseScore", func(t *testing.T) {
		v := MustParse("CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/E:U/CR:L")
		if got, want := v.BaseScore(), 9.3; got != want {
			t.Errorf("got: %v, want: %v", got, want)
		}
		if got, want := v.Score(), 8.1; got >= v.BaseScore() {
			t.Errorf("got: %v, want: less than %v (about %v)", got, v.BaseScore(), want)
		}
	})

	t.Run("Groups", func(t *testing.T) {
		v, err := ParseV4("CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N/R:A")
		if err != nil {
			t.Fatal(err)
		}
		if v.Threat() || v.Environmental() {
			t.Error("unexpected threat or environmental metrics")
		}
		if !v.Supplemental() {
			t.Error("missing supplemental metrics")
		}
		if got, want := ValueString(v, int(V4Recovery)), "A"; got != want {
			t.Errorf("got: %q, want: %q", got, want)
		}
		if got, want := V4Recovery.Name(), "Recovery"; got != want {
			t.Errorf("got: %q, want: %q", got, want)
		}
	})
}

func TestV4JointEQ3EQ6(t *testing.T) {
	impact := []string{"H", "L", "N"}
	req := []string{"H", "M", "L"}
	var checked int
	for _, vc := range impact {
		for _, vi := range impact {
			for _, va := range impact {
				for _, cr := range req {
					for _, ir := range req {
						for _, ar := range req {
							s := fmt.Sprintf("CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:%s/VI:%s/VA:%s/SC:N/SI:N/SA:N/CR:%s/IR:%s/AR:%s",
								vc, vi, va, cr, ir, ar)
							v, err := ParseV4(s)
							if err != nil {
								t.Fatal(err)
							}
							mv := v.macrovector()
							if !v.checkJoint(mv, vc, vi, va, cr, ir, ar) {
								t.Errorf("%s: levels %d/%d disagree with joint table", s, mv[eq3], mv[eq6])
							}
							checked++
						}
					}
				}
			}
		}
	}
	if got, want := checked, 729; got != want {
		t.Errorf("checked %d combinations, want %d", got, want)
	}

	t.Run("Mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		prev := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
		t.Cleanup(func() { slog.SetDefault(prev) })

		v, err := ParseV4("CVSS:4.0/AV:N/AC:L/AT:N/PR:N/UI:N/VC:H/VI:H/VA:H/SC:N/SI:N/SA:N")
		if err != nil {
			t.Fatal(err)
		}
		mv := v.macrovector()
		mv[eq3] = 2
		if v.checkJoint(mv, "H", "H", "H", "H", "H", "H") {
			t.Error("mismatch not reported")
		}
		out := buf.String()
		t.Log(out)
		for _, want := range []string{"level=WARN", "joint EQ3/EQ6", "VC:H"} {
			if !strings.Contains(out, want) {
				t.Errorf("log output missing %q", want)
			}
		}
	})
}
