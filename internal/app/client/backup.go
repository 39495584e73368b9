package client

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

const BackupSettingsKey = "backup.settings"

type BackupFormat string

const (
	FormatJSON BackupFormat = "json"
	FormatCSV  BackupFormat = "csv"
)

type BackupFrequency string

const (
	FrequencyDaily   BackupFrequency = "daily"
	FrequencyWeekly  BackupFrequency = "weekly"
	FrequencyMonthly BackupFrequency = "monthly"
)

func (f BackupFrequency) period() time.Duration {
	switch f {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

type BackupSettings struct {
	Enabled    bool            `json:"enabled"`
	Format     BackupFormat    `json:"format"`
	Frequency  BackupFrequency `json:"frequency"`
	LastBackup time.Time       `json:"last_backup,omitempty"`
}

// Due наступило ли время очередной копии
func (s BackupSettings) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.LastBackup.IsZero() {
		return true
	}
	return now.Sub(s.LastBackup) >= s.Frequency.period()
}

type BackupStore interface {
	KeyValue
	ReceiptStore
	ListUnsynced(ctx context.Context, types ...collection.RecordType) ([]collection.QueuedRecord, error)
}

// Backups резервное копирование очереди и кеша квитанций в файлы
type Backups struct {
	store BackupStore
	log   *slog.Logger
}

func NewBackups(store BackupStore, log *slog.Logger) *Backups {
	return &Backups{
		store: store,
		log:   log.With(slog.String("component", "backup")),
	}
}

func (b *Backups) Settings(ctx context.Context) (BackupSettings, error) {
	settings := BackupSettings{Format: FormatJSON, Frequency: FrequencyDaily}

	raw, ok, err := b.store.GetValue(ctx, BackupSettingsKey)
	if err != nil || !ok {
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, fmt.Errorf("decode backup settings: %w", err)
	}
	return settings, nil
}

func (b *Backups) SaveSettings(ctx context.Context, settings BackupSettings) error {
	switch settings.Format {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("unknown backup format %q", settings.Format)
	}
	switch settings.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return fmt.Errorf("unknown backup frequency %q", settings.Frequency)
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return b.store.SetValue(ctx, BackupSettingsKey, string(data))
}

// BackupDue сверяет сохранённые настройки с текущим временем
func (b *Backups) BackupDue(ctx context.Context, now time.Time) (bool, error) {
	settings, err := b.Settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.Due(now), nil
}

// Backup пишет копию в dir и обновляет время последней копии. Возвращает пути файлов.
func (b *Backups) Backup(ctx context.Context, dir string, now time.Time) ([]string, error) {
	settings, err := b.Settings(ctx)
	if err != nil {
		return nil, err
	}

	records, err := b.store.ListUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	receipts, err := b.store.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	stamp := now.UTC().Format("20060102-150405")
	var paths []string
	switch settings.Format {
	case FormatCSV:
		paths, err = writeCSVBackup(dir, stamp, records, receipts)
	default:
		paths, err = writeJSONBackup(dir, stamp, records, receipts)
	}
	if err != nil {
		return nil, err
	}

	settings.LastBackup = now.UTC()
	if err := b.SaveSettings(ctx, settings); err != nil {
		return paths, err
	}

	b.log.Info("backup written", slog.Int("records", len(records)), slog.Int("receipts", len(receipts)))
	return paths, nil
}

func writeJSONBackup(dir, stamp string, records []collection.QueuedRecord, receipts []collection.PrintedReceipt) ([]string, error) {
	path := filepath.Join(dir, "backup-"+stamp+".json")
	data, err := json.MarshalIndent(struct {
		Records  []collection.QueuedRecord   `json:"records"`
		Receipts []collection.PrintedReceipt `json:"receipts"`
	}{records, receipts}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	return []string{path}, nil
}

func writeCSVBackup(dir, stamp string, records []collection.QueuedRecord, receipts []collection.PrintedReceipt) ([]string, error) {
	recordsPath := filepath.Join(dir, "records-"+stamp+".csv")
	rows := [][]string{{"id", "type", "farmer_id", "farmer_name", "item_code", "quantity", "price",
		"transaction_ref", "upload_ref", "created_at"}}
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			string(r.Type),
			r.Payload.FarmerID,
			r.Payload.FarmerName,
			r.Payload.ItemCode,
			strconv.FormatFloat(r.Payload.Quantity, 'f', -1, 64),
			strconv.FormatFloat(r.Payload.Price, 'f', -1, 64),
			r.Payload.TransactionRef,
			r.Payload.UploadRef,
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSV(recordsPath, rows); err != nil {
		return nil, err
	}

	receiptsPath := filepath.Join(dir, "receipts-"+stamp+".csv")
	rows = [][]string{{"id", "type", "farmer_id", "references", "upload_ref", "total", "printed_at"}}
	for _, p := range receipts {
		refs, _ := json.Marshal(p.Receipt.References)
		rows = append(rows, []string{
			p.ID,
			string(p.Receipt.Type),
			p.Receipt.FarmerID,
			string(refs),
			p.Receipt.UploadRef,
			strconv.FormatFloat(p.Receipt.Total, 'f', 2, 64),
			p.PrintedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeCSV(receiptsPath, rows); err != nil {
		return nil, err
	}
	return []string{recordsPath, receiptsPath}, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
