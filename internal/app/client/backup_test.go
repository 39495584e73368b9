package client

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"milkcollect/internal/app/client/storage"
	"milkcollect/internal/domain/collection"
)

func TestBackupSettings_Due(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		settings BackupSettings
		want     bool
	}{
		{"disabled", BackupSettings{Enabled: false}, false},
		{"never backed up", BackupSettings{Enabled: true, Frequency: FrequencyWeekly}, true},
		{"daily due", BackupSettings{Enabled: true, Frequency: FrequencyDaily, LastBackup: now.Add(-25 * time.Hour)}, true},
		{"daily not due", BackupSettings{Enabled: true, Frequency: FrequencyDaily, LastBackup: now.Add(-time.Hour)}, false},
		{"weekly not due", BackupSettings{Enabled: true, Frequency: FrequencyWeekly, LastBackup: now.Add(-72 * time.Hour)}, false},
		{"monthly due", BackupSettings{Enabled: true, Frequency: FrequencyMonthly, LastBackup: now.AddDate(0, -2, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.Due(now))
		})
	}
}

func newBackupFixture(t *testing.T) (*Backups, *storage.Memory) {
	t.Helper()
	ctx := context.Background()

	store := storage.NewMemory()
	require.NoError(t, store.Open(ctx))

	_, err := store.Save(ctx, collection.QueuedRecord{Type: collection.TypeMilkCollection,
		Payload: collection.Payload{FarmerID: "F1", Quantity: 4.5, TransactionRef: "TXN-1"}})
	require.NoError(t, err)
	require.NoError(t, store.SaveReceipt(ctx, collection.PrintedReceipt{ID: "R1",
		Receipt: milkReceipt("F1", "TXN-1"), PrintedAt: time.Now()}))

	return NewBackups(store, slog.Default()), store
}

func TestBackups_JSON(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackupFixture(t)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, b.SaveSettings(ctx, BackupSettings{Enabled: true, Format: FormatJSON, Frequency: FrequencyDaily}))
	due, err := b.BackupDue(ctx, now)
	require.NoError(t, err)
	assert.True(t, due)

	paths, err := b.Backup(ctx, t.TempDir(), now)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var dump struct {
		Records  []collection.QueuedRecord   `json:"records"`
		Receipts []collection.PrintedReceipt `json:"receipts"`
	}
	require.NoError(t, json.Unmarshal(raw, &dump))
	assert.Len(t, dump.Records, 1)
	assert.Len(t, dump.Receipts, 1)

	settings, err := b.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.LastBackup.Equal(now))

	due, err = b.BackupDue(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestBackups_CSV(t *testing.T) {
	ctx := context.Background()
	b, _ := newBackupFixture(t)

	require.NoError(t, b.SaveSettings(ctx, BackupSettings{Enabled: true, Format: FormatCSV, Frequency: FrequencyWeekly}))

	paths, err := b.Backup(ctx, t.TempDir(), time.Now())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "F1", rows[1][2])
	assert.Equal(t, "4.5", rows[1][5])
}

func TestBackups_InvalidSettings(t *testing.T) {
	b, _ := newBackupFixture(t)
	ctx := context.Background()

	assert.Error(t, b.SaveSettings(ctx, BackupSettings{Format: "xml", Frequency: FrequencyDaily}))
	assert.Error(t, b.SaveSettings(ctx, BackupSettings{Format: FormatJSON, Frequency: "hourly"}))

	settings, err := b.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, settings.Format)
	assert.False(t, settings.Enabled)
}
