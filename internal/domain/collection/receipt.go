package collection

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"
)

// DuplicateCode структурированный код ответа бэкенда для повторной отправки
const DuplicateCode = "DUPLICATE"

// ReceiptLine строка квитанции
type ReceiptLine struct {
	Label string `msgpack:"label" json:"label"`
	Value string `msgpack:"value" json:"value"`
}

// Receipt структурированные данные квитанции для принтера
type Receipt struct {
	FarmerID   string        `msgpack:"farmer_id" json:"farmer_id"`
	FarmerName string        `msgpack:"farmer_name" json:"farmer_name,omitempty"`
	Type       RecordType    `msgpack:"type" json:"type"`
	References []string      `msgpack:"references" json:"references"`
	UploadRef  string        `msgpack:"upload_ref" json:"upload_ref,omitempty"`
	Lines      []ReceiptLine `msgpack:"lines" json:"lines"`
	Total      float64       `msgpack:"total" json:"total"`
}

// PrintedReceipt запись кеша для повторной печати
type PrintedReceipt struct {
	ID        string    `msgpack:"id" json:"id"`
	Receipt   Receipt   `msgpack:"receipt" json:"receipt"`
	PrintedAt time.Time `msgpack:"printed_at" json:"printed_at"`
}

// IsDuplicateReceipt сообщает, есть ли такая квитанция в кеше.
// Совпадение: тот же фермер, тип и упорядоченный список номеров,
// либо для магазина и ИО тот же upload-reference и тип.
func IsDuplicateReceipt(cache []PrintedReceipt, r Receipt) bool {
	for _, c := range cache {
		cr := c.Receipt
		if cr.Type != r.Type {
			continue
		}
		if cr.FarmerID == r.FarmerID && slices.Equal(cr.References, r.References) {
			return true
		}
		if (r.Type == TypeStoreSale || r.Type == TypeAISale) &&
			r.UploadRef != "" && cr.UploadRef == r.UploadRef {
			return true
		}
	}
	return false
}

var duplicatePhrases = []string{"duplicate", "already exists"}

// IsDuplicateError определяет, что бэкенд уже принял эту транзакцию.
// Основной признак: код DUPLICATE или статус 409; поиск по тексту ошибки
// оставлен для старых версий бэкенда.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateOnServer) {
		return true
	}

	var upErr *UploadError
	if errors.As(err, &upErr) {
		if upErr.Code == DuplicateCode || upErr.Status == http.StatusConflict {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range duplicatePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
