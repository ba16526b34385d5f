package presentation

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

func sampleReport() *violation.Report {
	r := violation.NewReport([]violation.Violation{
		violation.New(violation.KindDuplicateName, "2", "AAVE", "name %q also used by %s", "aave", "1"),
		violation.New(violation.KindDuplicateName, "1", "Aave", "name %q also used by %s", "aave", "2"),
		violation.New(violation.KindGithubOnChild, "7", "", "github belongs on parent#x"),
	})
	r.Checks = []string{"unique-names", "child-metadata"}
	return r
}

func TestFormatReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, WithFormat(FormatJSON))

	require.NoError(t, f.FormatReport(sampleReport()))

	var dto ReportDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dto))
	require.Equal(t, 3, dto.Total)
	require.Equal(t, 2, dto.Hard)
	require.Equal(t, 1, dto.Soft)
	require.True(t, dto.Failed)
	require.Len(t, dto.Groups, 2)

	names := dto.Groups[0]
	require.Equal(t, "duplicate-name", names.Kind)
	require.Equal(t, "hard", names.Severity)
	require.Equal(t, 2, names.Count)
	require.Equal(t, "1", names.Violations[0].EntityID)
	require.Equal(t, `name "aave" also used by 2`, names.Violations[0].Detail)
}

func TestFormatReport_JSONFieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, WithFormat(FormatJSON)).FormatReport(sampleReport()))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	group := raw["groups"].([]any)[0].(map[string]any)
	v := group["violations"].([]any)[0].(map[string]any)
	for _, field := range []string{"kind", "severity", "entityId", "name", "detail"} {
		require.Contains(t, v, field)
	}
}

func TestFormatReport_JSONClean(t *testing.T) {
	var buf bytes.Buffer
	r := violation.NewReport(nil)
	r.Checks = []string{"unique-ids"}

	require.NoError(t, NewFormatter(&buf, WithFormat(FormatJSON)).FormatReport(r))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Equal(t, []any{}, raw["groups"])
	require.Equal(t, false, raw["failed"])
}

func TestFormatReport_Gate(t *testing.T) {
	r := violation.NewReport([]violation.Violation{
		violation.New(violation.KindGithubOnChild, "7", "", "github belongs on parent#x"),
	})

	require.False(t, FromReport(r, violation.Hard).Failed)
	require.True(t, FromReport(r, violation.Soft).Failed)
}

func TestFormatReport_Text(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, WithColor(false))

	require.NoError(t, f.FormatReport(sampleReport()))

	expected := `duplicate-name (hard, 2)
  1 Aave: name "aave" also used by 2
  2 AAVE: name "aave" also used by 1

github-on-child (soft, 1)
  7: github belongs on parent#x

3 violations (2 hard, 1 soft) across 2 checks
`
	require.Equal(t, expected, buf.String())
}

func TestFormatReport_TextClean(t *testing.T) {
	var buf bytes.Buffer
	r := violation.NewReport(nil)
	r.Checks = []string{"a", "b", "c"}

	require.NoError(t, NewFormatter(&buf).FormatReport(r))
	require.Equal(t, "No violations (3 checks)\n", buf.String())
}

func TestFormatReport_TextColorKeepsContent(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewFormatter(&buf, WithColor(true)).FormatReport(sampleReport()))
	require.Contains(t, buf.String(), "duplicate-name (hard, 2)")
	require.Contains(t, buf.String(), "github belongs on parent#x")
}

func TestFormatRuns(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := history.NewRun("/reg", sampleReport(), started, started.Add(time.Second))

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf, WithFormat(FormatJSON)).FormatRuns([]*history.Run{run}))

	var dtos []RunDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dtos))
	require.Len(t, dtos, 1)
	require.Equal(t, run.ID, dtos[0].ID)
	require.Equal(t, 2, dtos[0].Hard)
	require.Equal(t, 1, dtos[0].Soft)
	require.Equal(t, 2, dtos[0].Checks)

	buf.Reset()
	require.NoError(t, NewFormatter(&buf).FormatRuns([]*history.Run{run}))
	require.Equal(t, run.ID+"  2024-05-01 12:00:00  2 hard, 1 soft  (2 checks)\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(&buf).FormatRuns(nil))
	require.Equal(t, "No runs recorded\n", buf.String())
}
