package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/app/client"
	"milkcollect/internal/app/client/config"
	"milkcollect/internal/utils/logger"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	debug     bool
	serverURL string
	dataPath  string
	printTo   string
	printFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "milkcollect",
	Short: "Клиент сбора молока и продаж с офлайн-очередью",
	Long: `milkcollect записывает сборы молока, продажи магазина и продажи ИО
в локальную очередь и выгружает их на сервер, когда есть сеть и устройство
одобрено администратором.

Записи никогда не теряются: очередь удаляется только после подтверждения сервера.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// флаги командной строки важнее окружения
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	log = logger.NewWithFile(cfg.Env, cfg.LogLevel, cfg.LogFile)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var opts []client.Option
	if printTo != "" {
		printer, err := openPrinter(printTo)
		if err != nil {
			return err
		}
		opts = append(opts, client.WithPrinter(printer))
	}

	app, err = client.New(ctx, cfg, log, opts...)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(ctx, types.ClientAppKey, app))
	return nil
}

// openPrinter "-" печатает в stdout, иначе дописывает в файл или устройство
func openPrinter(target string) (client.Printer, error) {
	if target == "-" {
		return client.TextPrinter{W: os.Stdout}, nil
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия принтера: %w", err)
	}
	printFile = f
	return client.TextPrinter{W: f}, nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if printFile != nil {
		_ = printFile.Close()
	}
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&types.JSONOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера (host:port)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "путь к файлу локальной очереди")
	rootCmd.PersistentFlags().StringVar(&printTo, "printer", "", "куда печатать квитанции: \"-\" для stdout или путь к устройству")
}
