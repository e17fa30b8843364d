package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/agentstation/mhcgcal/internal/cmd/alerts"
	"github.com/agentstation/mhcgcal/internal/cmd/cmdtest"
	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/reconciler"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

type report struct {
	Summary string `json:"summary"`
	Counts  struct {
		Created  int `json:"created"`
		Updated  int `json:"updated"`
		Imported int `json:"imported"`
		Deleted  int `json:"deleted"`
		Failed   int `json:"failed"`
	} `json:"counts"`
}

func decode(t *testing.T, out string) report {
	t.Helper()
	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func seed(t *testing.T, env *cmdtest.Env) {
	t.Helper()
	start := schedule.TimeOfDay{Hour: 9}
	end := schedule.TimeOfDay{Hour: 10}
	_, err := env.Store.Add(context.Background(), &schedule.LocalEvent{
		Subject: "Dentist",
		Date:    civil.Date{Year: 2024, Month: time.March, Day: 5},
		Time:    schedule.NewTimeRange(start, &end),
	})
	require.NoError(t, err)

	env.Server.Add(&calendar.Event{
		Id:      "lunch",
		Summary: "Lunch",
		Start:   &calendar.EventDateTime{DateTime: "2024-03-05T12:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-03-05T13:00:00Z"},
		Updated: "2024-03-04T08:00:00Z",
	})
}

func TestSyncPushesAndImports(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	env := cmdtest.New(t, now)
	seed(t, env)

	env.Now = now.Add(time.Hour)
	stdout, stderr, err := cmdtest.Run(NewCommand(env.App), "--date", "20240305")
	require.NoError(t, err)

	r := decode(t, stdout)
	assert.Equal(t, 1, r.Counts.Created)
	assert.Equal(t, 1, r.Counts.Imported)
	assert.Zero(t, r.Counts.Failed)
	assert.Contains(t, stderr, r.Summary)

	for _, ev := range env.Server.Events() {
		require.NotNil(t, ev.ExtendedProperties, ev.Id)
		assert.NotEmpty(t, ev.ExtendedProperties.Private[constants.RecordIDProperty], ev.Id)
	}

	w, err := schedule.NewWindow(civil.Date{Year: 2024, Month: time.March, Day: 5},
		civil.Date{Year: 2024, Month: time.March, Day: 5}, schedule.CategoryFilter{})
	require.NoError(t, err)
	days, err := env.Store.Search(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Events, 2)
	assert.Equal(t, "Dentist", days[0].Events[0].Subject)
	assert.Equal(t, "Lunch", days[0].Events[1].Subject)

	// A second run over the same window finds nothing to do.
	stdout, _, err = cmdtest.Run(NewCommand(env.App), "--date", "20240305")
	require.NoError(t, err)
	r = decode(t, stdout)
	assert.Zero(t, r.Counts.Created+r.Counts.Updated+r.Counts.Imported+r.Counts.Deleted)
}

func TestSyncDryRun(t *testing.T) {
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	env := cmdtest.New(t, now)
	seed(t, env)

	stdout, stderr, err := cmdtest.Run(NewCommand(env.App), "--date", "20240305", "--dry-run")
	require.NoError(t, err)

	r := decode(t, stdout)
	assert.Equal(t, 1, r.Counts.Created)
	assert.Equal(t, 1, r.Counts.Imported)
	assert.Contains(t, stderr, "(Dry run)")
	assert.Len(t, env.Server.Events(), 1)
	assert.Empty(t, env.Server.Patches())
}

func TestSyncFetchFailure(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	seed(t, env)
	env.Server.FailAll(503)

	_, _, err := cmdtest.Run(NewCommand(env.App), "--date", "20240305")
	require.Error(t, err)
	assert.True(t, errors.IsRemoteUnavailable(err))
	assert.Len(t, env.Server.Events(), 1)
}

func TestSyncBadDate(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))

	_, _, err := cmdtest.Run(NewCommand(env.App), "--date", "zzz+x")
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestSyncBadFormat(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC))
	env.Format = "xml"

	_, _, err := cmdtest.Run(NewCommand(env.App))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestPrintReportRateLimited(t *testing.T) {
	result := reconciler.NewResult("run-1", schedule.Window{}, false)
	result.Failures = append(result.Failures,
		errors.NewSyncError("push", "R1", "", errors.NewAPIError("google calendar", 429, "quota exceeded")))

	var buf bytes.Buffer
	require.NoError(t, printReport(alerts.NewWriter(&buf, false), result))

	assert.Contains(t, buf.String(), "push failed for record R1")
	assert.Contains(t, buf.String(), "rate limit")

	buf.Reset()
	result.Failures = []error{errors.NewSyncError("push", "R1", "", errors.NewAPIError("google calendar", 503, "backend"))}
	require.NoError(t, printReport(alerts.NewWriter(&buf, false), result))
	assert.NotContains(t, buf.String(), "rate limit")
}
