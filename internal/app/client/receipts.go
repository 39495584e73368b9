package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

// NoPrinterMessage текст ошибки оболочки при отсутствии подключенного принтера
const NoPrinterMessage = "No printer connected"

type PrintResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Printer interface {
	PrintReceipt(ctx context.Context, r collection.Receipt) PrintResult
}

type ReceiptStore interface {
	SaveReceipt(ctx context.Context, r collection.PrintedReceipt) error
	ListReceipts(ctx context.Context) ([]collection.PrintedReceipt, error)
	TrimReceipts(ctx context.Context, keep int) error
}

// Receipts печать квитанций и кеш для повторной печати
type Receipts struct {
	store   ReceiptStore
	printer Printer
	limit   int
	log     *slog.Logger
	now     func() time.Time
}

func NewReceipts(store ReceiptStore, printer Printer, limit int, log *slog.Logger) *Receipts {
	if printer == nil {
		printer = NoPrinter{}
	}
	return &Receipts{
		store:   store,
		printer: printer,
		limit:   limit,
		log:     log.With(slog.String("component", "receipts")),
		now:     time.Now,
	}
}

// Print печатает квитанцию и добавляет её в кеш, если такой там ещё нет.
// Отсутствие принтера возвращается как ErrNoPrinterConnected.
func (r *Receipts) Print(ctx context.Context, receipt collection.Receipt) error {
	if err := printError("print receipt", r.printer.PrintReceipt(ctx, receipt)); err != nil {
		return err
	}

	if err := r.remember(ctx, receipt); err != nil {
		r.log.Warn("receipt not cached", slog.Any("error", err))
	}
	return nil
}

// Reprint печатает квитанцию из кеша по идентификатору
func (r *Receipts) Reprint(ctx context.Context, id string) error {
	cached, err := r.store.ListReceipts(ctx)
	if err != nil {
		return err
	}
	for _, c := range cached {
		if c.ID == id {
			return printError("reprint receipt", r.printer.PrintReceipt(ctx, c.Receipt))
		}
	}
	return fmt.Errorf("receipt %s not found", id)
}

func (r *Receipts) List(ctx context.Context) ([]collection.PrintedReceipt, error) {
	return r.store.ListReceipts(ctx)
}

func (r *Receipts) remember(ctx context.Context, receipt collection.Receipt) error {
	cached, err := r.store.ListReceipts(ctx)
	if err != nil {
		return err
	}
	if collection.IsDuplicateReceipt(cached, receipt) {
		r.log.Debug("receipt already cached", slog.String("farmer", receipt.FarmerID))
		return nil
	}

	if err := r.store.SaveReceipt(ctx, collection.PrintedReceipt{
		ID:        uuid.NewString(),
		Receipt:   receipt,
		PrintedAt: r.now().UTC(),
	}); err != nil {
		return err
	}
	return r.store.TrimReceipts(ctx, r.limit)
}

func printError(op string, res PrintResult) error {
	if res.Success {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(res.Error), NoPrinterMessage) {
		return collection.ErrNoPrinterConnected
	}
	return fmt.Errorf("%s: %s", op, res.Error)
}

// NoPrinter используется, когда оболочка не предоставляет принтер
type NoPrinter struct{}

func (NoPrinter) PrintReceipt(context.Context, collection.Receipt) PrintResult {
	return PrintResult{Success: false, Error: NoPrinterMessage}
}

// TextPrinter выводит квитанцию как текст (терминал, файл, последовательный порт)
type TextPrinter struct {
	W     io.Writer
	Title string
}

func (p TextPrinter) PrintReceipt(_ context.Context, r collection.Receipt) PrintResult {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "%s\n", p.Title)
	}
	fmt.Fprintf(&b, "%s\n", strings.ToUpper(string(r.Type)))
	fmt.Fprintf(&b, "Farmer: %s %s\n", r.FarmerID, r.FarmerName)
	for _, line := range r.Lines {
		fmt.Fprintf(&b, "%-16s %s\n", line.Label, line.Value)
	}
	if r.Total != 0 {
		fmt.Fprintf(&b, "%-16s %.2f\n", "Total", r.Total)
	}
	if len(r.References) > 0 {
		fmt.Fprintf(&b, "Ref: %s\n", strings.Join(r.References, ", "))
	}

	if _, err := io.WriteString(p.W, b.String()); err != nil {
		return PrintResult{Success: false, Error: err.Error()}
	}
	return PrintResult{Success: true}
}

// IsNoPrinter ошибка печати, после которой интерфейс переходит на печать из браузера
func IsNoPrinter(err error) bool {
	return errors.Is(err, collection.ErrNoPrinterConnected)
}
