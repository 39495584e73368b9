package backup

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/app/client"
)

var (
	backupDir string
	enabled   bool
	format    string
	frequency string
)

var BackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Резервное копирование очереди и квитанций",
}

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Сделать резервную копию сейчас",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		dir := backupDir
		if dir == "" {
			dir = app.BackupDir()
		}

		files, err := app.Backups().Backup(cmd.Context(), dir, time.Now())
		if err != nil {
			return fmt.Errorf("ошибка резервного копирования: %w", err)
		}
		if types.JSONOutput {
			return types.PrintJSON(files)
		}
		for _, f := range files {
			types.OK("%s", f)
		}
		return nil
	},
}

var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Показать или изменить настройки автокопирования",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		settings, err := app.Backups().Settings(ctx)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		changed := false
		if flags.Changed("enabled") {
			settings.Enabled = enabled
			changed = true
		}
		if flags.Changed("format") {
			settings.Format = client.BackupFormat(format)
			changed = true
		}
		if flags.Changed("frequency") {
			settings.Frequency = client.BackupFrequency(frequency)
			changed = true
		}
		if changed {
			if err := app.Backups().SaveSettings(ctx, settings); err != nil {
				return fmt.Errorf("ошибка сохранения настроек: %w", err)
			}
		}

		if types.JSONOutput {
			return types.PrintJSON(settings)
		}
		fmt.Printf("Включено: %t\nФормат: %s\nПериодичность: %s\n",
			settings.Enabled, settings.Format, settings.Frequency)
		if !settings.LastBackup.IsZero() {
			fmt.Printf("Последняя копия: %s\n", settings.LastBackup.Local().Format(time.DateTime))
		}
		return nil
	},
}

func init() {
	RunCmd.Flags().StringVar(&backupDir, "dir", "", "каталог для копий")

	SettingsCmd.Flags().BoolVar(&enabled, "enabled", false, "включить автоматическое копирование")
	SettingsCmd.Flags().StringVar(&format, "format", string(client.FormatJSON), "формат: json или csv")
	SettingsCmd.Flags().StringVar(&frequency, "frequency", string(client.FrequencyDaily), "daily, weekly или monthly")
}
