package cvss

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quay/cvssmerge"
)

func TestParse(t *testing.T) {
	t.Run("Version", func(t *testing.T) {
		tt := []struct {
			In   string
			Want Version
		}{
			{"AV:N/AC:L/Au:N/C:N/I:N/A:C", Version20},
			{"(AV:N/AC:L/Au:N/C:N/I:N/A:C)", Version20},
			{"CVSS:2.0/AV:N/AC:L/Au:N/C:N/I:N/A:C", Version20},
			{"CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:C/C:L/I:L/A:N", Version30},
			{"CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N", Version31},
			{"cvss:3.1/av:p/ac:h/pr:h/ui:r/s:u/c:n/i:n/a:n", Version31},
			{"CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/SC:N/VI:L/SI:N/VA:N/SA:N", Version40},
		}
		for _, tc := range tt {
			t.Run(tc.In, func(t *testing.T) {
				v, err := Parse(tc.In)
				if err != nil {
					t.Fatal(err)
				}
				if got, want := v.Version(), tc.Want; got != want {
					t.Errorf("got: %v, want: %v", got, want)
				}
			})
		}
	})

	t.Run("Error", func(t *testing.T) {
		tcs := []ErrorTestcase{
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N"},
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N/XX:Y"}, // Unknown metric
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:Q"},      // Unknown value
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/"},         // Missing metric
			{Vector: "CVSS:3.3/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N", Error: true},
			{Vector: "CVSS:5.0/AV:N", Error: true},
			{Vector: "CVSS:3.1", Error: true},
			{Vector: "CVSS:4.0/", Error: true},
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A-N", Error: true},
			{Vector: "CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/:N", Error: true},
			{Vector: "", Error: true},
		}
		Error(t, tcs)
	})

	t.Run("ErrorKind", func(t *testing.T) {
		_, err := Parse("CVSS:9.9/AV:N")
		if err == nil {
			t.Fatal("expected error")
		}
		t.Log(err)
		if !errors.Is(err, ErrMalformedVector) {
			t.Errorf("errors.Is(%v): got: false, want: true", ErrMalformedVector)
		}
		if !errors.Is(err, cvssmerge.ErrMalformed) {
			t.Errorf("errors.Is(%v): got: false, want: true", cvssmerge.ErrMalformed)
		}
	})

	t.Run("Lenient", func(t *testing.T) {
		tt := []struct {
			Name string
			In   string
			Want string
		}{
			{
				Name: "UnknownMetric",
				In:   "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/ZZ:Q",
				Want: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "UnknownValue",
				In:   "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/E:Z",
				Want: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "NotDefined",
				In:   "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/E:X/CR:X",
				Want: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "LastWins",
				In:   "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H/AV:P",
				Want: "CVSS:3.1/AV:P/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "Order",
				In:   "CVSS:3.1/A:H/I:H/C:H/S:U/UI:N/PR:N/AC:L/AV:N",
				Want: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "Case",
				In:   "cvss:4.0/av:n/ac:l/at:n/pr:h/ui:n/vc:l/vi:l/va:n/sc:n/si:n/sa:n/u:red",
				Want: "CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N/U:Red",
			},
			{
				Name: "Incomplete",
				In:   "CVSS:3.1/AV:N/AC:L/PR:N/S:U/C:H/I:H/A:H",
				Want: "CVSS:3.1/AV:N/AC:L/PR:N/S:U/C:H/I:H/A:H",
			},
			{
				Name: "V2Parens",
				In:   "(AV:N/AC:L/Au:N/C:N/I:N/A:C)",
				Want: "AV:N/AC:L/Au:N/C:N/I:N/A:C",
			},
			{
				Name: "V2Prefix",
				In:   "CVSS:2.0/AV:N/AC:L/Au:N/C:N/I:N/A:C",
				Want: "AV:N/AC:L/Au:N/C:N/I:N/A:C",
			},
		}
		for _, tc := range tt {
			t.Run(tc.Name, func(t *testing.T) {
				v, err := Parse(tc.In)
				if err != nil {
					t.Fatal(err)
				}
				if got, want := v.String(), tc.Want; got != want {
					t.Error(cmp.Diff(got, want))
				}
			})
		}
	})
}

func TestQualitative(t *testing.T) {
	tt := []struct {
		Vector string
		Want   Qualitative
	}{
		{"CVSS:3.1/AV:P/AC:H/PR:H/UI:R/S:U/C:N/I:N/A:N", None},
		{"CVSS:3.1/AV:N/AC:H/PR:N/UI:R/S:U/C:L/I:N/A:N", Low},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:L/I:N/A:N", Medium},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:N/A:N", High},
		{"CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", Critical},
		{"CVSS:4.0/AV:N/AC:L/AT:N/PR:H/UI:N/VC:L/VI:L/VA:N/SC:N/SI:N/SA:N", Medium},
	}
	for _, tc := range tt {
		t.Run(tc.Vector, func(t *testing.T) {
			v := MustParse(tc.Vector)
			if got, want := QualitativeScore(v), tc.Want; got != want {
				t.Errorf("got: %v, want: %v", got, want)
			}
		})
	}
}

// Roundtrip is a test helper to ensure that all the passed vector strings
// roundtrip this package.
//
// If the incoming vector is not canonicalized, this is expected to fail; this
// package only emits canonicalized vectors.
func Roundtrip(t *testing.T, vecs []string) {
	t.Helper()
	for _, in := range vecs {
		t.Run("", func(t *testing.T) {
			t.Helper()
			t.Log(in)
			v, err := Parse(in)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := v.String(), in; got != want {
				t.Error(cmp.Diff(got, want))
			}
			again, err := Parse(v.String())
			if err != nil {
				t.Fatal(err)
			}
			if !Equal(v, again) {
				t.Errorf("reparsed vector differs: %v != %v", again, v)
			}
			for i := 0; i < v.Len(); i++ {
				t.Logf("%3v\t%#v", MetricCode(v, i), v.Get(i))
			}
		})
	}
}

// Reparse is a test helper to ensure that parsing the serialization of a
// parsed vector yields an identical vector, for vectors that are not in
// canonical form.
func Reparse(t *testing.T, vecs []string) {
	t.Helper()
	for _, in := range vecs {
		t.Run("", func(t *testing.T) {
			t.Helper()
			v, err := Parse(in)
			if err != nil {
				t.Fatal(err)
			}
			again, err := Parse(v.String())
			if err != nil {
				t.Fatal(err)
			}
			t.Logf("%s -> %s", in, again)
			if !Equal(v, again) {
				t.Errorf("reparsed vector differs: %v != %v", again, v)
			}
		})
	}
}

type ScoreTestcase struct {
	Vector string
	Score  float64
}

// Score is a test helper to ensure that the score calculation is correct for a
// vector.
func Score(t *testing.T, tcs []ScoreTestcase) {
	t.Helper()
	for _, tc := range tcs {
		t.Run("", func(t *testing.T) {
			t.Helper()
			t.Log(tc.Vector)
			v, err := Parse(tc.Vector)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got, want := v.Score(), tc.Score; got != want {
				t.Errorf("got: %4.1f, want: %4.1f", got, want)
			} else {
				t.Logf("🆗\t%4.1f %v", tc.Score, QualitativeScore(v))
			}
		})
	}
}

type ErrorTestcase struct {
	Vector string
	Error  bool
}

func Error(t *testing.T, tcs []ErrorTestcase) {
	t.Helper()
	for _, tc := range tcs {
		t.Run("", func(t *testing.T) {
			t.Helper()
			t.Log(tc.Vector)
			_, err := Parse(tc.Vector)
			t.Logf("%v", err)
			if (err != nil) != tc.Error {
				t.Fail()
			}
		})
	}
}

// RandomVectors returns "n" complete vectors of the version "ver". Every
// non-base metric is defined with probability "p".
//
// The vectors depend only on the arguments, so failures are reproducible.
func randomVectors(ver Version, seed uint64, n int, p float64) []Vector {
	r := rand.New(rand.NewPCG(seed, uint64(ver)))
	s := build(ver, nil).schema()
	out := make([]Vector, n)
	for k := range out {
		vals := make([]Value, len(s.Metrics))
		for i, m := range s.Metrics {
			if i >= s.BaseLen && r.Float64() >= p {
				continue
			}
			vals[i] = Value(1 + r.IntN(len(m.Values)))
		}
		out[k] = build(ver, vals)
	}
	return out
}
