package capture

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"milkcollect/cmd/client/cmd/types"
	"milkcollect/internal/domain/collection"
)

var (
	farmerID   string
	farmerName string
	route      string
	session    string
	itemCode   string
	itemName   string
	quantity   float64
	price      float64
	userID     string
	clerkName  string
	season     string
	uploadRef  string
	photoPath  string
)

var CaptureCmd = &cobra.Command{
	Use:       "capture <milk-collection|store-sale|ai-sale>",
	Short:     "Записать транзакцию в очередь",
	ValidArgs: []string{string(collection.TypeMilkCollection), string(collection.TypeStoreSale), string(collection.TypeAISale)},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Записывает сбор молока или продажу в локальную очередь.

Запись сохраняется без сети и без одобрения устройства. Продажи с одинаковым
--ref выгружаются одним пакетом.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		p := collection.Payload{
			FarmerID:   farmerID,
			FarmerName: farmerName,
			Route:      route,
			Session:    session,
			ItemCode:   itemCode,
			ItemName:   itemName,
			Quantity:   quantity,
			Price:      price,
			UserID:     userID,
			ClerkName:  clerkName,
			Season:     season,
			UploadRef:  uploadRef,
		}
		if photoPath != "" {
			p.Photo, err = os.ReadFile(photoPath)
			if err != nil {
				return fmt.Errorf("ошибка чтения фото: %w", err)
			}
		}

		rec, err := app.Capture(cmd.Context(), collection.RecordType(args[0]), p)
		if err != nil {
			return err
		}

		if types.JSONOutput {
			return types.PrintJSON(rec)
		}
		types.OK("запись %s поставлена в очередь (%s)", rec.ID, rec.Payload.TransactionRef)
		return nil
	},
}

func init() {
	f := CaptureCmd.Flags()
	f.StringVar(&farmerID, "farmer", "", "код фермера")
	f.StringVar(&farmerName, "farmer-name", "", "имя фермера")
	f.StringVar(&route, "route", "", "маршрут сбора")
	f.StringVar(&session, "session", "", "смена сбора (AM/PM)")
	f.StringVar(&itemCode, "item", "", "код товара")
	f.StringVar(&itemName, "item-name", "", "наименование товара")
	f.Float64Var(&quantity, "qty", 0, "количество (литры или штуки)")
	f.Float64Var(&price, "price", 0, "цена за единицу")
	f.StringVar(&userID, "user", "", "идентификатор учетчика")
	f.StringVar(&clerkName, "clerk", "", "имя продавца")
	f.StringVar(&season, "season", "", "сезон")
	f.StringVar(&uploadRef, "ref", "", "номер пакета выгрузки")
	f.StringVar(&photoPath, "photo", "", "файл с фото подтверждения")

	_ = CaptureCmd.MarkFlagRequired("farmer")
	_ = CaptureCmd.MarkFlagRequired("qty")
}
