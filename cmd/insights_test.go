package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
	"github.com/Jrdheeraj/tirupati-geoai/internal/export"
)

func TestInsightsCmdRejectsFormatBeforeCreatingFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "insights.pdf")

	cmd := newInsightsCmd()
	cmd.SetArgs([]string{"--format", "pdf", "--out", out})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no file should be left behind")
}

func TestWriteInsights(t *testing.T) {
	labels := model.ClassLabels{"Forest", "Agri", "Built-up"}
	result, err := core.ComputeInsights(model.TransitionMatrix{
		{100, 0, 0},
		{0, 50, 10},
		{5, 0, 45},
	}, labels, model.InsightConfig{BuiltupIndex: 2, FootprintIndices: []int{0, 1}})
	require.NoError(t, err)

	period := model.Period{Start: 2018, End: 2025}
	a := &export.Analysis{
		Period:    period,
		Labels:    labels,
		Insights:  *result,
		Narrative: core.Render(result, "Tirupati"),
	}

	var text bytes.Buffer
	require.NoError(t, writeInsights(&text, "", period, a))
	assert.True(t, strings.HasPrefix(text.String(), "Key Insights (2018 → 2025)\n"))
	assert.Contains(t, text.String(), "Net Footprint: Forest (+5 Ha), Agri (-10 Ha)")

	var csv bytes.Buffer
	require.NoError(t, writeInsights(&csv, export.FormatCSV, period, a))
	assert.True(t, strings.HasPrefix(csv.String(), "Class,Retention,Start (Ha),End (Ha),Delta (Ha)\n"))
}
