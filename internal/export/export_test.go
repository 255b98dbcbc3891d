package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

var labels = model.ClassLabels{"Forest", "Agri", "Built-up"}

func scenarioAnalysis(t *testing.T) *Analysis {
	t.Helper()
	matrix := model.TransitionMatrix{
		{100, 0, 0},
		{0, 50, 10},
		{5, 0, 45},
	}
	result, err := core.ComputeInsights(matrix, labels, model.InsightConfig{BuiltupIndex: 2, FootprintIndices: []int{0, 1}})
	require.NoError(t, err)
	return &Analysis{
		Period:    model.Period{Start: 2018, End: 2025},
		Labels:    labels,
		Change:    &model.ChangeResponse{MatrixArea: matrix},
		Insights:  *result,
		Narrative: core.Render(result, "Tirupati"),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "csv": FormatCSV, "yaml": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("png")
	require.Error(t, err)
}

func TestWriteLULCCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLULCCSV(&buf, &model.LULCResponse{
		TotalAreaHa: 300,
		Stats: []model.LULCStat{
			{ClassName: "Forest", AreaHa: 120.5, Percentage: 40.17},
			{ClassName: "Water Bodies", AreaHa: 30, Percentage: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Class,Area (Ha),Percentage\nForest,120.5,40.17\nWater Bodies,30,10\n", buf.String())
}

func TestWriteMatrixCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMatrixCSV(&buf, labels, model.TransitionMatrix{{1, 2, 3}, {4, 5, 6}, {7, 8, 9.5}}))
	assert.Equal(t, "From / To,Forest,Agri,Built-up\nForest,1,2,3\nAgri,4,5,6\nBuilt-up,7,8,9.5\n", buf.String())
}

func TestWriteInsightsCSV(t *testing.T) {
	a := scenarioAnalysis(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, a))

	want := "Class,Retention,Start (Ha),End (Ha),Delta (Ha)\n" +
		"Forest,1,100,105,5\n" +
		"Agri,0.8333333333333334,60,50,-10\n" +
		"Built-up,0.9,50,55,5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSONAndYAML(t *testing.T) {
	a := scenarioAnalysis(t)

	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, FormatJSON, a))
	var decoded Analysis
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	assert.Equal(t, a.Insights, decoded.Insights)
	assert.Equal(t, a.Narrative, decoded.Narrative)

	var yamlBuf bytes.Buffer
	require.NoError(t, Write(&yamlBuf, FormatYAML, a))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &doc))
	insights, ok := doc["insights"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Forest", insights["stable_class"])
	assert.Contains(t, yamlBuf.String(), "matrix_area:")
}

func TestFilenames(t *testing.T) {
	p := model.Period{Start: 2018, End: 2025}
	assert.Equal(t, "tirupati_lulc_stats_2025.csv", LULCFilename("Tirupati", 2025))
	assert.Equal(t, "tirupati_change_analysis_2018_2025.json", AnalysisFilename("Tirupati", p, FormatJSON))
	assert.Equal(t, "new_delhi_insights_2018_2025.yaml", AnalysisFilename(" New  Delhi ", p, FormatYAML))
	assert.Equal(t, "geoai_insights_2018_2025.csv", AnalysisFilename("", p, FormatCSV))
}
