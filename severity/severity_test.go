package severity

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quay/cvssmerge"
)

func TestDefault(t *testing.T) {
	require.Len(t, DefaultRanges, 5)
	assert.Equal(t, Range{Label: "Critical", Color: "#c00000", Min: 9, Max: 10}, DefaultRanges[4])
	assert.Equal(t, "None:#5b9bd5:0:0;Low:#6fb94d:0.1:3.9;Medium:#ffc000:4:6.9;High:#ed7d31:7:8.9;Critical:#c00000:9:10", DefaultRanges.String())

	again, err := Parse(DefaultRanges.String())
	require.NoError(t, err)
	assert.Equal(t, DefaultRanges, again)
}

func TestClassify(t *testing.T) {
	tt := []struct {
		Score float64
		Want  string
	}{
		{0, "None"},
		{0.05, "None"},
		{0.1, "Low"},
		{3.9, "Low"},
		{3.95, "Low"},
		{4.0, "Medium"},
		{6.9, "Medium"},
		{7.0, "High"},
		{8.9, "High"},
		{9.0, "Critical"},
		{10.0, "Critical"},
	}
	for _, tc := range tt {
		r, err := DefaultRanges.Classify(tc.Score)
		if assert.NoError(t, err, "score %v", tc.Score) {
			assert.Equal(t, tc.Want, r.Label, "score %v", tc.Score)
		}
	}

	for _, s := range []float64{-0.1, 10.1, math.NaN(), math.Inf(1)} {
		_, err := DefaultRanges.Classify(s)
		assert.ErrorIs(t, err, cvssmerge.ErrConfig, "score %v", s)
	}
}

func TestRatioScale(t *testing.T) {
	rs, err := Parse("low::0:0.49;high::0.5:1")
	require.NoError(t, err)
	r, err := rs.Classify(0.495)
	require.NoError(t, err)
	assert.Equal(t, "low", r.Label)
	r, err = rs.Classify(1)
	require.NoError(t, err)
	assert.Equal(t, "high", r.Label)
}

func TestParseError(t *testing.T) {
	tt := []struct {
		Name string
		In   string
	}{
		{"Empty", ""},
		{"Fields", "Low:#fff:0:3.9:extra;High:#000:4:10"},
		{"NotNumeric", "Low:#fff:zero:3.9;High:#000:4:10"},
		{"Infinite", "Low:#fff:0:3.9;High:#000:4:Inf"},
		{"NoLabel", ":#fff:0:3.9;High:#000:4:10"},
		{"Unsorted", "High:#000:4:10;Low:#fff:0:3.9"},
		{"Overlap", "Low:#fff:0:5;High:#000:4:10"},
		{"Gap", "Low:#fff:0:3.5;High:#000:4:10"},
		{"NotFromZero", "Low:#fff:1:3.9;High:#000:4:10"},
		{"Scale", "Low:#fff:0:3.9;High:#000:4:9.5"},
		{"Inverted", "Low:#fff:0:3.9;Mid:#fff:5:4;High:#000:4:10"},
		{"Duplicate", "Low:#fff:0:3.9;Low:#000:4:10"},
		{"RatioGap", "low::0:0.4;high::0.5:1"},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := Parse(tc.In)
			t.Log(err)
			assert.ErrorIs(t, err, cvssmerge.ErrConfig)
		})
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		Ranges Ranges `json:"ranges"`
	}
	err := json.Unmarshal([]byte(`{"ranges":"Low:green:0:4.9;High:red:5:10"}`), &v)
	require.NoError(t, err)
	require.Len(t, v.Ranges, 2)
	assert.Equal(t, "red", v.Ranges[1].Color)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ranges":"Low:green:0:4.9;High:red:5:10"}`, string(b))

	err = json.Unmarshal([]byte(`{"ranges":"Low:green:0:4"}`), &v)
	assert.Error(t, err)
}
