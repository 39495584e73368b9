package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/app/client"
	"milkcollect/internal/domain/collection"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Выгрузить очередь на сервер",
	Long: `Выполняет один проход синхронизации.

Записи удаляются из очереди только после подтверждения сервера или ответа
о дубликате. Неудачные записи остаются в очереди до следующего прохода.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if syncStatus {
			return showStatus(cmd, app)
		}

		start := time.Now()
		result, err := app.SyncNow(cmd.Context())
		if errors.Is(err, collection.ErrAuthorizationDenied) {
			return fmt.Errorf("устройство не одобрено администратором, записи остаются в очереди")
		}
		if err != nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}

		if types.JSONOutput {
			return types.PrintJSON(result)
		}

		switch {
		case result.Offline:
			types.Warn("нет сети, синхронизация пропущена")
		case result.Skipped:
			types.Warn("синхронизация уже выполняется")
		default:
			types.OK("синхронизация завершена за %v", time.Since(start).Round(time.Millisecond))
			fmt.Printf("Выгружено: %d\n", result.Synced)
			if result.Failed > 0 {
				types.Warn("не выгружено: %d (повтор при следующем проходе)", result.Failed)
			}
		}
		return nil
	},
}

func showStatus(cmd *cobra.Command, app *client.App) error {
	st, err := app.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("ошибка получения статуса: %w", err)
	}
	if types.JSONOutput {
		return types.PrintJSON(st)
	}

	fmt.Println("=== Статус синхронизации ===")
	fmt.Printf("В очереди: %d\n", st.Pending)
	if st.Quarantined > 0 {
		types.Warn("в карантине (повреждены): %d", st.Quarantined)
	}
	if st.LastSync != nil {
		fmt.Printf("Последний проход: %s (выгружено %d, ошибок %d)\n",
			st.LastSync.Local().Format(time.DateTime), st.LastResult.Synced, st.LastResult.Failed)
	} else {
		fmt.Println("Последний проход: не выполнялся")
	}
	return nil
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус очереди")
}
