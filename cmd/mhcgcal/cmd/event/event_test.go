package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/mhcgcal/internal/cmd/cmdtest"
	"github.com/agentstation/mhcgcal/pkg/errors"
	"github.com/agentstation/mhcgcal/pkg/schedule"
)

type row struct {
	RecordID   string   `json:"record_id"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Subject    string   `json:"subject"`
	Location   string   `json:"location"`
	Categories []string `json:"categories"`
	Recurrence string   `json:"recurrence"`
}

func decodeRows(t *testing.T, out string) []row {
	t.Helper()
	var rows []row
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	return rows
}

func TestEventLifecycle(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	stdout, stderr, err := cmdtest.Run(NewCommand(env.App), "add",
		"-d", "20240305", "-t", "09:00-10:30", "-s", "Dentist", "-l", "Clinic", "-c", "Private Health")
	require.NoError(t, err)
	rows := decodeRows(t, stdout)
	require.Len(t, rows, 1)
	added := rows[0]
	assert.NotEmpty(t, added.RecordID)
	assert.Equal(t, "2024-03-05", added.Date)
	assert.Equal(t, "09:00-10:30", added.Time)
	assert.Equal(t, []string{"private", "health"}, added.Categories)
	assert.Contains(t, stderr, "Added "+added.RecordID)

	env.Now = env.Now.Add(time.Hour)
	stdout, _, err = cmdtest.Run(NewCommand(env.App), "update", added.RecordID, "--all-day", "-s", "Dentist (moved)")
	require.NoError(t, err)
	rows = decodeRows(t, stdout)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Time)
	assert.Equal(t, "Dentist (moved)", rows[0].Subject)
	assert.Equal(t, "Clinic", rows[0].Location, "fields without flags are kept")

	env.Now = env.Now.Add(time.Hour)
	_, stderr, err = cmdtest.Run(NewCommand(env.App), "delete", added.RecordID)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Deleted "+added.RecordID)

	_, err = env.Store.Get(ctx, added.RecordID)
	assert.True(t, errors.IsNotFound(err))

	stdout, _, err = cmdtest.Run(NewCommand(env.App), "show", added.RecordID, "--history")
	require.NoError(t, err)
	var history []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	require.Len(t, history, 3)
	assert.Equal(t, string(schedule.StatusCreated), history[0].Status)
	assert.Equal(t, string(schedule.StatusUpdated), history[1].Status)
	assert.Equal(t, string(schedule.StatusDeleted), history[2].Status)
}

func TestEventAddRecurring(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	stdout, _, err := cmdtest.Run(NewCommand(env.App), "add",
		"-d", "2024-03-04", "-s", "Standup", "--rrule", "FREQ=WEEKLY;COUNT=4")
	require.NoError(t, err)
	rows := decodeRows(t, stdout)
	require.Len(t, rows, 1)

	stdout, _, err = cmdtest.Run(NewCommand(env.App), "show", rows[0].RecordID)
	require.NoError(t, err)
	shown := decodeRows(t, stdout)
	require.Len(t, shown, 1)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", shown[0].Recurrence)
}

func TestEventAddValidation(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		args []string
	}{
		{"missing date", []string{"add", "-s", "x"}},
		{"missing subject", []string{"add", "-d", "20240301"}},
		{"bad date", []string{"add", "-d", "2024-13-01", "-s", "x"}},
		{"bad time", []string{"add", "-d", "20240301", "-s", "x", "-t", "9-10"}},
		{"bad rule", []string{"add", "-d", "20240301", "-s", "x", "--rrule", "FREQ=SOMETIMES"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := cmdtest.Run(NewCommand(env.App), tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestEventMissing(t *testing.T) {
	env := cmdtest.New(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	for _, args := range [][]string{
		{"show", "nope"},
		{"update", "nope", "-s", "x"},
		{"delete", "nope"},
	} {
		_, _, err := cmdtest.Run(NewCommand(env.App), args...)
		require.Error(t, err, args)
		assert.True(t, errors.IsNotFound(err), "got %v", err)
	}
}
