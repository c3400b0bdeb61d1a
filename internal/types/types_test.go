package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []Severity
		want Severity
	}{
		{"empty", nil, SevSuccess},
		{"single", []Severity{SevWarning}, SevWarning},
		{"max wins", []Severity{SevWarning, SevSuccess, SevFailure, SevSuccess}, SevFailure},
		{"exception dominates", []Severity{SevFailure, SevException, SevWarning}, SevException},
		{"all success", []Severity{SevSuccess, SevSuccess}, SevSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.in...))
		})
	}
}

func TestMerge_Monotonic(t *testing.T) {
	all := []Severity{SevSuccess, SevWarning, SevFailure, SevException}
	for _, base := range all {
		for _, added := range all {
			got := Merge(base, added)
			assert.True(t, got.AtLeast(base), "merge(%s,%s) lowered severity", base, added)
			assert.True(t, got.AtLeast(added))
		}
	}
}

func TestParseSeverity_RoundTrip(t *testing.T) {
	for _, s := range []Severity{SevSuccess, SevWarning, SevFailure, SevException} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSeverity(" Warning\n")
	require.NoError(t, err)
	assert.Equal(t, SevWarning, got)

	_, err = ParseSeverity("cancelled")
	assert.Error(t, err)
}

func TestSeverity_JSONUsesTokens(t *testing.T) {
	b, err := json.Marshal(JobResult{Name: "stl_corruption", Severity: SevFailure, JobID: "42"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"severity":"failure"`)

	var back JobResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, SevFailure, back.Severity)
}

func TestOutcome_ValueZeroFills(t *testing.T) {
	col := Column{Title: "Edges Fixed", Key: "edges_fixed", Zero: "0"}
	assert.Equal(t, "0", Outcome{}.Value(col))
	assert.Equal(t, "3", Outcome{Values: map[string]string{"edges_fixed": "3"}}.Value(col))
}

func TestArtifact_Paths(t *testing.T) {
	a := Artifact{Root: "/repo", Path: "user/mod/part.stl"}
	assert.Equal(t, "part.stl", a.Name())
	assert.Contains(t, a.FullPath(), "part.stl")
}
