package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/backup"
	"milkcollect/cmd/client/cmd/capture"
	"milkcollect/cmd/client/cmd/device"
	"milkcollect/cmd/client/cmd/receipt"
	"milkcollect/cmd/client/cmd/serve"
	"milkcollect/cmd/client/cmd/sync"
	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/domain/collection"
)

var initUserID string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Первичная настройка устройства",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Создает отпечаток устройства и сохраняет его в локальной базе
	2. Проверяет версию API сервера
	3. Отправляет заявку на регистрацию устройства

Без сети заявка сохраняется и отправляется при следующей синхронизации.
Выгрузка начнется после одобрения устройства администратором.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		fp, err := app.Fingerprint(ctx)
		if err != nil {
			return fmt.Errorf("ошибка получения отпечатка устройства: %w", err)
		}
		fmt.Printf("Отпечаток устройства: %s\n", fp)

		fmt.Println("Проверка сервера...")
		status, err := app.CheckBackendVersion(ctx)
		switch {
		case err != nil:
			types.Warn("сервер недоступен: %v", err)
		case status == collection.VersionStale:
			types.Warn("сервер не поддерживает текущую версию API")
		default:
			types.OK("сервер доступен")
		}

		hostname, _ := os.Hostname()
		queued, err := app.RegisterDevice(ctx, initUserID, hostname)
		if err != nil {
			return fmt.Errorf("ошибка регистрации устройства: %w", err)
		}
		if queued {
			types.Warn("заявка на регистрацию отложена до появления сети")
		} else {
			types.OK("заявка на регистрацию отправлена")
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Попросите администратора одобрить устройство с этим отпечатком")
		fmt.Println("2. Проверьте статус: milkcollect device status")
		fmt.Println("3. Запишите первый сбор: milkcollect capture milk-collection --farmer F001 --qty 12.5")
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initUserID, "user", "", "идентификатор учетчика")
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(capture.CaptureCmd)
	rootCmd.AddCommand(sync.SyncCmd)

	rootCmd.AddCommand(device.DeviceCmd)
	device.DeviceCmd.AddCommand(device.RegisterCmd)
	device.DeviceCmd.AddCommand(device.StatusCmd)
	device.DeviceCmd.AddCommand(device.FingerprintCmd)

	rootCmd.AddCommand(receipt.ReceiptCmd)
	receipt.ReceiptCmd.AddCommand(receipt.ListCmd)
	receipt.ReceiptCmd.AddCommand(receipt.PrintCmd)
	receipt.ReceiptCmd.AddCommand(receipt.ReprintCmd)

	rootCmd.AddCommand(backup.BackupCmd)
	backup.BackupCmd.AddCommand(backup.RunCmd)
	backup.BackupCmd.AddCommand(backup.SettingsCmd)

	rootCmd.AddCommand(serve.ServeCmd)
}
