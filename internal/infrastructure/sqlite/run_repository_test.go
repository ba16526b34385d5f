package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

func setupTestRepo(t *testing.T) history.RunRepository {
	t.Helper()
	return newTestDB(t).RunRepository()
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRun(registry string, offset time.Duration, vs ...violation.Violation) *history.Run {
	report := violation.NewReport(vs)
	report.Checks = []string{"unique-ids", "unique-names"}
	return history.NewRun(registry, report, epoch.Add(offset), epoch.Add(offset+time.Second))
}

func TestRunRepository_SaveAndFindByID(t *testing.T) {
	repo := setupTestRepo(t)
	run := sampleRun("/reg", 0,
		violation.New(violation.KindDuplicateName, "1", "Aave", "name shared"),
		violation.New(violation.KindGithubOnChild, "2", "", "move github"),
	)

	require.NoError(t, repo.Save(run))

	found, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	require.Equal(t, run.ID, found.ID)
	require.Equal(t, "/reg", found.Registry)
	require.True(t, run.StartedAt.Equal(found.StartedAt))
	require.True(t, run.FinishedAt.Equal(found.FinishedAt))
	require.Equal(t, run.Checks, found.Checks)
	require.Equal(t, run.Violations, found.Violations)
	require.Equal(t, 1, found.Hard())
	require.Equal(t, 1, found.Soft())
}

func TestRunRepository_SaveDuplicateID(t *testing.T) {
	repo := setupTestRepo(t)
	run := sampleRun("/reg", 0)

	require.NoError(t, repo.Save(run))
	require.Error(t, repo.Save(run))
}

func TestRunRepository_SaveIsAtomic(t *testing.T) {
	repo := setupTestRepo(t)
	run := sampleRun("/reg", 0)
	dup := violation.New(violation.KindDuplicateID, "1", "", "x")
	run.Violations = []violation.Violation{dup, dup}

	require.Error(t, repo.Save(run))

	_, err := repo.FindByID(run.ID)
	require.ErrorIs(t, err, history.ErrRunNotFound)
}

func TestRunRepository_FindByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.FindByID("missing")
	var nf *history.RunNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "missing", nf.ID)
}

func TestRunRepository_Latest(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Latest("/reg")
	require.ErrorIs(t, err, history.ErrRunNotFound)

	older := sampleRun("/reg", 0, violation.New(violation.KindDuplicateID, "1", "", "old"))
	newer := sampleRun("/reg", time.Minute, violation.New(violation.KindDuplicateID, "2", "", "new"))
	other := sampleRun("/other", time.Hour)
	require.NoError(t, repo.Save(newer))
	require.NoError(t, repo.Save(older))
	require.NoError(t, repo.Save(other))

	latest, err := repo.Latest("/reg")
	require.NoError(t, err)
	require.Equal(t, newer.ID, latest.ID)
	require.Len(t, latest.Violations, 1)
	require.Equal(t, "2", latest.Violations[0].EntityID)
}

func TestRunRepository_List(t *testing.T) {
	repo := setupTestRepo(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(sampleRun("/reg", time.Duration(i)*time.Minute)))
	}
	require.NoError(t, repo.Save(sampleRun("/other", time.Hour)))

	all, err := repo.List(history.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.Equal(t, "/other", all[0].Registry)

	reg, err := repo.List(history.ListFilter{Registry: "/reg", Limit: 2})
	require.NoError(t, err)
	require.Len(t, reg, 2)
	require.True(t, reg[0].StartedAt.After(reg[1].StartedAt))
	require.Empty(t, reg[0].Violations)
}

func TestRunRepository_Prune(t *testing.T) {
	repo := setupTestRepo(t)
	var runs []*history.Run
	for i := 0; i < 4; i++ {
		run := sampleRun("/reg", time.Duration(i)*time.Minute, violation.New(violation.KindDuplicateID, "1", "", "x"))
		runs = append(runs, run)
		require.NoError(t, repo.Save(run))
	}
	require.NoError(t, repo.Save(sampleRun("/other", 0)))

	deleted, err := repo.Prune("/reg", 1)
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	remaining, err := repo.List(history.ListFilter{Registry: "/reg"})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, runs[3].ID, remaining[0].ID)

	_, err = repo.FindByID(runs[0].ID)
	require.ErrorIs(t, err, history.ErrRunNotFound)

	other, err := repo.List(history.ListFilter{Registry: "/other"})
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestRunRepository_PruneCascadesViolations(t *testing.T) {
	db := newTestDB(t)
	repo := db.RunRepository()
	require.NoError(t, repo.Save(sampleRun("/reg", 0, violation.New(violation.KindDuplicateID, "1", "", "x"))))

	_, err := repo.Prune("/reg", 0)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.conn.QueryRow("SELECT COUNT(*) FROM run_violations").Scan(&n))
	require.Zero(t, n)
}

func TestProperty_SavedViolationsRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	kinds := violation.Kinds()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		set := violation.NewSet()
		for i := 0; i < n; i++ {
			set.Add(violation.New(
				rapid.SampledFrom(kinds).Draw(rt, "kind"),
				fmt.Sprintf("%d", rapid.IntRange(0, 5).Draw(rt, "entity")),
				rapid.StringMatching(`[A-Za-z ]{0,6}`).Draw(rt, "name"),
				"%s", rapid.StringMatching(`[a-z ]{1,12}`).Draw(rt, "detail"),
			))
		}
		run := history.NewRun("/prop", set.Report(), epoch, epoch)
		require.NoError(rt, repo.Save(run))

		found, err := repo.FindByID(run.ID)
		require.NoError(rt, err)
		require.Equal(rt, run.Report().All(), found.Report().All())
		require.Equal(rt, run.Hard(), found.Hard())
	})
}
