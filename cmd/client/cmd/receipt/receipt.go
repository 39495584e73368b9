package receipt

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/app/client"
	"milkcollect/internal/domain/collection"
)

var (
	farmerID   string
	farmerName string
	recordType string
	references []string
	uploadRef  string
	total      float64
)

var ReceiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Печать квитанций",
}

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Кеш напечатанных квитанций",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		list, err := app.Receipts().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения квитанций: %w", err)
		}
		if types.JSONOutput {
			return types.PrintJSON(list)
		}
		if len(list) == 0 {
			fmt.Println("Квитанций нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tТИП\tФЕРМЕР\tНОМЕРА\tНАПЕЧАТАНО")
		for _, r := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Receipt.Type, r.Receipt.FarmerID,
				strings.Join(r.Receipt.References, ","),
				r.PrintedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

var PrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Напечатать квитанцию",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		receipt := collection.Receipt{
			FarmerID:   farmerID,
			FarmerName: farmerName,
			Type:       collection.RecordType(recordType),
			References: references,
			UploadRef:  uploadRef,
			Total:      total,
		}
		return report(app.Receipts().Print(cmd.Context(), receipt))
	},
}

var ReprintCmd = &cobra.Command{
	Use:   "reprint <id>",
	Short: "Повторно напечатать квитанцию из кеша",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		return report(app.Receipts().Reprint(cmd.Context(), args[0]))
	},
}

func report(err error) error {
	if client.IsNoPrinter(err) {
		return fmt.Errorf("%s: укажите --printer", client.NoPrinterMessage)
	}
	if err != nil {
		return err
	}
	types.OK("квитанция напечатана")
	return nil
}

func init() {
	f := PrintCmd.Flags()
	f.StringVar(&farmerID, "farmer", "", "код фермера")
	f.StringVar(&farmerName, "farmer-name", "", "имя фермера")
	f.StringVar(&recordType, "type", string(collection.TypeMilkCollection), "тип транзакции")
	f.StringSliceVar(&references, "refs", nil, "номера транзакций через запятую")
	f.StringVar(&uploadRef, "ref", "", "номер пакета выгрузки")
	f.Float64Var(&total, "total", 0, "итог")
	_ = PrintCmd.MarkFlagRequired("farmer")
}
