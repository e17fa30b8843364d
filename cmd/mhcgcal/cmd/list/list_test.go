package list

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/agentstation/mhcgcal/internal/cmd/cmdtest"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

func TestListLocal(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()
	for _, ev := range []*schedule.LocalEvent{
		{Subject: "Standup", Date: civil.Date{Year: 2024, Month: time.March, Day: 4}, Recurrence: "FREQ=DAILY;COUNT=3", Categories: []string{"work"}},
		{Subject: "Holiday", Date: civil.Date{Year: 2024, Month: time.March, Day: 5}, Categories: []string{"holiday"}},
		{Subject: "Later", Date: civil.Date{Year: 2024, Month: time.April, Day: 1}},
	} {
		_, err := env.Store.Add(ctx, ev)
		require.NoError(t, err)
	}

	stdout, _, err := cmdtest.Run(NewCommand(env.App), "--date", "today+2")
	require.NoError(t, err)

	var rows []struct {
		Date    string `json:"date"`
		Subject string `json:"subject"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows), stdout)
	require.Len(t, rows, 3, "default category filter hides holidays")
	assert.Equal(t, "2024-03-04", rows[0].Date)
	assert.Equal(t, "2024-03-06", rows[2].Date)
	for _, r := range rows {
		assert.Equal(t, "Standup", r.Subject)
	}

	stdout, _, err = cmdtest.Run(NewCommand(env.App), "--date", "today+2", "--category", "holiday")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Holiday")
	assert.NotContains(t, stdout, "Standup")
}

func TestListRemote(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	env.Server.Add(&calendar.Event{
		Id: "in", Summary: "Review",
		Start: &calendar.EventDateTime{DateTime: "2024-03-04T15:00:00Z"},
		End:   &calendar.EventDateTime{DateTime: "2024-03-04T16:00:00Z"},
	})
	env.Server.Add(&calendar.Event{
		Id: "out", Summary: "Next week",
		Start: &calendar.EventDateTime{Date: "2024-03-11"},
		End:   &calendar.EventDateTime{Date: "2024-03-12"},
	})

	stdout, _, err := cmdtest.Run(NewCommand(env.App), "--remote")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Review")
	assert.NotContains(t, stdout, "Next week")
}

func TestListMatch(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()
	for _, subject := range []string{"Team sync", "Dentist"} {
		_, err := env.Store.Add(ctx, &schedule.LocalEvent{
			Subject: subject,
			Date:    civil.Date{Year: 2024, Month: time.March, Day: 4},
		})
		require.NoError(t, err)
	}

	stdout, _, err := cmdtest.Run(NewCommand(env.App), "--match", "team *")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Team sync")
	assert.NotContains(t, stdout, "Dentist")

	_, _, err = cmdtest.Run(NewCommand(env.App), "--match", "(broken")
	require.Error(t, err)
}
