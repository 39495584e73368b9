package types

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"milkcollect/internal/app/client"
)

type contextKey string

// ClientAppKey ключ контекста команды, под которым лежит *client.App
const ClientAppKey contextKey = "app"

// JSONOutput включается глобальным флагом --json
var JSONOutput bool

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, errors.New("приложение не инициализировано")
	}
	return app, nil
}

func PrintJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func OK(format string, args ...any) {
	okColor.Printf("✓ "+format+"\n", args...)
}

func Warn(format string, args ...any) {
	warnColor.Printf("! "+format+"\n", args...)
}
