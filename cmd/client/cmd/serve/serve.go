package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/app/client"
	"milkcollect/internal/app/client/bridge"
	"milkcollect/internal/domain/collection"
)

const shutdownTimeout = 5 * time.Second

var (
	listenAddr string
	scalePath  string
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Фоновая синхронизация и локальный API для оболочки",
	Long: `Запускает фоновые процессы клиента и локальный HTTP API:
	- синхронизацию по таймеру и при появлении сети
	- проверку авторизации и версии сервера
	- автоматическое резервное копирование
	- поток событий для интерфейса (WebSocket /local/events)

С флагом --scale читает показания весов построчно из файла или stdin ("-").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		log := app.Logger()

		addr := listenAddr
		if addr == "" {
			addr = app.Config().BridgeAddress
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              addr,
			Handler:           bridge.New(app, log).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		if scalePath != "" {
			scale, err := openScale(scalePath)
			if err != nil {
				return err
			}
			defer scale.Close()
			go readScale(ctx, app, scale, log)
		}

		done := make(chan struct{})
		go func() {
			app.Run(ctx)
			close(done)
		}()

		fmt.Printf("Локальный API: http://%s/local\n", addr)
		fmt.Println("Нажмите Ctrl+C для остановки...")

		select {
		case <-ctx.Done():
		case err := <-errCh:
			stop()
			<-done
			return fmt.Errorf("ошибка локального API: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("bridge shutdown", slog.Any("error", err))
		}
		<-done
		return nil
	},
}

func openScale(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия весов: %w", err)
	}
	return f, nil
}

func readScale(ctx context.Context, app *client.App, r io.Reader, log *slog.Logger) {
	err := app.Weight().Run(ctx, client.NewLineWeightSource(r, log))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, collection.ErrScaleDisconnected) {
		log.Error("scale reader stopped", slog.Any("error", err))
	}
}

func init() {
	ServeCmd.Flags().StringVar(&listenAddr, "listen", "", "адрес локального API (по умолчанию BRIDGE_ADDRESS)")
	ServeCmd.Flags().StringVar(&scalePath, "scale", "", "источник показаний весов: путь или \"-\" для stdin")
}
