package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestError(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog_Enabled(t *testing.T) {
	u, out, _ := newTestUI()
	u.Verbose = true
	u.VerboseLog("detail %d", 1)
	assert.Contains(t, out.String(), "detail 1")
}

func TestVerboseLog_Disabled(t *testing.T) {
	u, out, _ := newTestUI()
	u.Verbose = false
	u.VerboseLog("detail %d", 1)
	assert.Empty(t, out.String())
}

func TestColorHelpers(t *testing.T) {
	// Color helpers should return non-empty strings
	assert.NotEmpty(t, Cyan("test"))
	assert.NotEmpty(t, Green("test"))
	assert.NotEmpty(t, Yellow("test"))
	assert.NotEmpty(t, Red("test"))
}

func TestSeverityColor(t *testing.T) {
	assert.NotEmpty(t, SeverityColor("critical"))
	assert.NotEmpty(t, SeverityColor("high"))
	assert.NotEmpty(t, SeverityColor("medium"))
	assert.NotEmpty(t, SeverityColor("low"))
	assert.Equal(t, "unknown", SeverityColor("unknown"))
}

func TestScoreColor(t *testing.T) {
	assert.NotEmpty(t, ScoreColor(95))
	assert.NotEmpty(t, ScoreColor(60))
	assert.NotEmpty(t, ScoreColor(20))
}

func TestTrendColor(t *testing.T) {
	assert.NotEmpty(t, TrendColor("improving"))
	assert.NotEmpty(t, TrendColor("deteriorating"))
	assert.NotEmpty(t, TrendColor("stable"))
}

func TestVerdictColor(t *testing.T) {
	assert.Contains(t, VerdictColor(true), "approved")
	assert.Contains(t, VerdictColor(false), "changes requested")
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"Artifact", "Score"})
	require.NotNil(t, table)

	table.Append([]string{"widget.js", "80"})
	table.Append([]string{"app.js", "95"})
	err := table.Render()
	require.NoError(t, err)

	result := out.String()
	assert.True(t, strings.Contains(result, "widget.js"),
		"table output should contain artifact names")
	assert.True(t, strings.Contains(result, "95"))
}
