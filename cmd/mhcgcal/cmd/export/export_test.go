package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mhcgcal/internal/cmd/cmdtest"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

func TestExportToFile(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	start := schedule.TimeOfDay{Hour: 9}
	_, err := env.Store.Add(context.Background(), &schedule.LocalEvent{
		Subject: "Review",
		Date:    civil.Date{Year: 2024, Month: time.March, Day: 4},
		Time:    schedule.NewTimeRange(start, nil),
	})
	require.NoError(t, err)
	_, err = env.Store.Add(context.Background(), &schedule.LocalEvent{
		Subject:    "Therapy",
		Date:       civil.Date{Year: 2024, Month: time.March, Day: 5},
		Categories: []string{"private"},
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "march.ics")
	stdout, stderr, err := cmdtest.Run(NewCommand(env.App), "--date", "202403", "--out", out, "--name", "March")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Exported 2 events")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cal, err := ical.ParseCalendar(f)
	require.NoError(t, err)

	var titles []string
	for _, ev := range cal.Events() {
		titles = append(titles, ev.GetProperty(ical.ComponentPropertySummary).Value)
	}
	assert.ElementsMatch(t, []string{"Review", "SECRET"}, titles)
}

func TestExportToStdout(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	stdout, _, err := cmdtest.Run(NewCommand(env.App))
	require.NoError(t, err)
	assert.Contains(t, stdout, "BEGIN:VCALENDAR")
	assert.NotContains(t, stdout, "BEGIN:VEVENT")
}
