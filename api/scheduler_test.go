package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-ledger/ledger"
	"github.com/warp/loan-ledger/store/memory"
)

func newTestScheduler(t *testing.T, l *ledger.Ledger, dir string) *BackupScheduler {
	t.Helper()
	bs, err := NewBackupScheduler(l, dir, "@every 1h", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	bs.now = func() time.Time { return testNow }
	return bs
}

func TestBackupScheduler_RunNow(t *testing.T) {
	// GIVEN: A loaded ledger with one person
	// WHEN: Running a backup
	// THEN: A dated export document is written to the directory

	s := newTestServer(t, nil)
	s.createPerson("Ali")
	dir := filepath.Join(t.TempDir(), "backups")

	path, err := newTestScheduler(t, s.ledger, dir).RunNow()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "loan-manager-backup-2025-03-01.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc ledger.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Persons, 1)
	assert.Equal(t, "Ali", doc.Persons[0].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be renamed away")
}

func TestBackupScheduler_SameDayOverwrites(t *testing.T) {
	s := newTestServer(t, nil)
	dir := t.TempDir()
	bs := newTestScheduler(t, s.ledger, dir)

	_, err := bs.RunNow()
	require.NoError(t, err)
	s.createPerson("Beth")
	path, err := bs.RunNow()
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Beth")
}

func TestBackupScheduler_SkipsUnloadedLedger(t *testing.T) {
	l := ledger.New(memory.New())
	dir := t.TempDir()

	path, err := newTestScheduler(t, l, dir).RunNow()

	require.NoError(t, err)
	assert.Empty(t, path)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackupScheduler_StartWritesImmediately(t *testing.T) {
	l := ledger.New(memory.New())
	require.NoError(t, l.Load(context.Background()))
	dir := t.TempDir()
	bs := newTestScheduler(t, l, dir)

	bs.Start()
	defer bs.Stop()

	want := filepath.Join(dir, "loan-manager-backup-2025-03-01.json")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(want)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBackupScheduler_Disabled(t *testing.T) {
	l := ledger.New(memory.New())
	bs := newTestScheduler(t, l, "")

	assert.False(t, bs.Enabled())
	bs.Start()
	bs.Stop()
	assert.True(t, testNow.Add(time.Hour).Equal(bs.NextRunTime()), "next run %s", bs.NextRunTime())
}

func TestNewBackupScheduler_Schedule(t *testing.T) {
	l := ledger.New(memory.New())

	bs, err := NewBackupScheduler(l, t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBackupSchedule, bs.Schedule)

	bs.now = func() time.Time { return testNow }
	want := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(bs.NextRunTime()), "next run %s", bs.NextRunTime())

	_, err = NewBackupScheduler(l, t.TempDir(), "every day", nil)
	assert.ErrorContains(t, err, "invalid backup schedule")
}
