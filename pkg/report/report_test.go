package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportSave(t *testing.T) {
	r := New("dry-run", "contacts.csv")
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)

	r.Add(Outcome{Line: 2, Name: "أحمد", Phone: "+249912345678", ImageFile: "ahmed.jpg", Status: StatusSent, Template: 3})
	r.Add(Outcome{Line: 3, Status: StatusRejected, Error: "Phone number must start with '+'"})
	r.Finish(Summary{Total: 2, Sent: 1, Rejected: 1, Failures: 1})

	path := filepath.Join(t.TempDir(), "out", "run.json")
	saved, err := r.Save(path)
	require.NoError(t, err)
	assert.Equal(t, path, saved)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file left behind")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, "dry-run", decoded.Backend)
	assert.Equal(t, 1, decoded.Summary.Sent)
	require.Len(t, decoded.Outcomes, 2)
	assert.Equal(t, "أحمد", decoded.Outcomes[0].Name)
	assert.Equal(t, StatusRejected, decoded.Outcomes[1].Status)
	assert.False(t, decoded.Outcomes[1].At.IsZero())
	assert.False(t, decoded.FinishedAt.Before(decoded.StartedAt))
}

func TestReportSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	r := New("browser", "")
	r.Finish(Summary{})
	_, err := r.Save(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), r.RunID)
}

func TestReportSaveAuto(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on linux")
	}
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	r := New("dry-run", "")
	path, err := r.Save(AutoPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, "greetsend", "reports", r.RunID+".json"), path)
	assert.FileExists(t, path)
}

func TestNilReportIsSafe(t *testing.T) {
	var r *Report
	assert.NotPanics(t, func() {
		r.Add(Outcome{Status: StatusSent})
		r.Finish(Summary{Sent: 1})
	})
}
