package device

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/domain/collection"
)

var (
	userID     string
	deviceInfo string
)

var DeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Регистрация и авторизация устройства",
}

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Отправить заявку на регистрацию",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		info := deviceInfo
		if info == "" {
			info, _ = os.Hostname()
		}

		queued, err := app.RegisterDevice(cmd.Context(), userID, info)
		if err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}
		if queued {
			types.Warn("сервер недоступен, заявка будет отправлена при синхронизации")
			return nil
		}
		types.OK("заявка отправлена, ожидайте одобрения администратором")
		return nil
	},
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Проверить авторизацию и доступность сервера",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		version, versionErr := app.CheckBackendVersion(ctx)
		auth, authErr := app.CheckAuthorization(ctx)

		if types.JSONOutput {
			return types.PrintJSON(struct {
				Backend       collection.VersionStatus `json:"backend"`
				Reachable     bool                     `json:"reachable"`
				Authorization collection.AuthState     `json:"authorization"`
			}{version, versionErr == nil, auth})
		}

		switch {
		case versionErr != nil:
			types.Warn("сервер недоступен: %v", versionErr)
		case version == collection.VersionStale:
			types.Warn("версия API сервера устарела")
		default:
			types.OK("сервер доступен")
		}

		switch {
		case authErr != nil && !auth.Known:
			types.Warn("авторизация неизвестна: %v", authErr)
		case auth.Authorized:
			types.OK("устройство одобрено (%s)", auth.CompanyName)
		default:
			types.Warn("устройство не одобрено")
		}
		return nil
	},
}

var FingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Показать отпечаток устройства",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		fp, err := app.Fingerprint(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(fp)
		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVar(&userID, "user", "", "идентификатор учетчика")
	RegisterCmd.Flags().StringVar(&deviceInfo, "info", "", "описание устройства (по умолчанию имя хоста)")
}
