package bridge

import (
	"time"

	"milkcollect/internal/app/client"
	"milkcollect/internal/domain/collection"
)

// PayloadBody поля записи от оболочки; обязательность проверяет collection.Validate
type PayloadBody struct {
	FarmerID       string    `json:"farmer_id,omitempty"`
	FarmerName     string    `json:"farmer_name,omitempty"`
	Route          string    `json:"route,omitempty"`
	Session        string    `json:"session,omitempty" doc:"AM или PM"`
	ItemCode       string    `json:"item_code,omitempty"`
	ItemName       string    `json:"item_name,omitempty"`
	Quantity       float64   `json:"quantity,omitempty"`
	Price          float64   `json:"price,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	ClerkName      string    `json:"clerk_name,omitempty"`
	Season         string    `json:"season,omitempty"`
	Photo          []byte    `json:"photo,omitempty" doc:"Фото в base64"`
	UploadRef      string    `json:"upload_ref,omitempty"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	WeightSource   string    `json:"weight_source,omitempty"`
	CapturedAt     time.Time `json:"captured_at,omitempty"`
}

func (p PayloadBody) toPayload() collection.Payload {
	return collection.Payload{
		FarmerID:       p.FarmerID,
		FarmerName:     p.FarmerName,
		Route:          p.Route,
		Session:        p.Session,
		ItemCode:       p.ItemCode,
		ItemName:       p.ItemName,
		Quantity:       p.Quantity,
		Price:          p.Price,
		UserID:         p.UserID,
		ClerkName:      p.ClerkName,
		Season:         p.Season,
		Photo:          p.Photo,
		UploadRef:      p.UploadRef,
		TransactionRef: p.TransactionRef,
		WeightSource:   p.WeightSource,
		CapturedAt:     p.CapturedAt,
	}
}

type CaptureBody struct {
	Type    collection.RecordType `json:"type" doc:"milk-collection, store-sale или ai-sale"`
	Payload PayloadBody           `json:"payload"`
}

type captureInput struct {
	Body CaptureBody
}

type captureOutput struct {
	Body collection.QueuedRecord
}

type syncOutput struct {
	Body collection.PassResult
}

type onlineInput struct {
	Body struct {
		Online bool `json:"online"`
	}
}

type statusOutput struct {
	Body client.Status
}

type receiptsOutput struct {
	Body []collection.PrintedReceipt
}

// ReceiptBody квитанция к печати; строки и итог необязательны
type ReceiptBody struct {
	FarmerID   string                   `json:"farmer_id" minLength:"1"`
	FarmerName string                   `json:"farmer_name,omitempty"`
	Type       collection.RecordType    `json:"type"`
	References []string                 `json:"references,omitempty"`
	UploadRef  string                   `json:"upload_ref,omitempty"`
	Lines      []collection.ReceiptLine `json:"lines,omitempty"`
	Total      float64                  `json:"total,omitempty"`
}

func (r ReceiptBody) toReceipt() collection.Receipt {
	return collection.Receipt{
		FarmerID:   r.FarmerID,
		FarmerName: r.FarmerName,
		Type:       r.Type,
		References: r.References,
		UploadRef:  r.UploadRef,
		Lines:      r.Lines,
		Total:      r.Total,
	}
}

type printInput struct {
	Body ReceiptBody
}

type referenceInput struct {
	Kind string `path:"kind" enum:"farmers,routes,products"`
}

type referenceOutput struct {
	Body any
}

type saveReferenceInput struct {
	Kind    string `path:"kind" enum:"farmers,routes,products"`
	RawBody []byte
}

type saveReferenceOutput struct {
	Body struct {
		Saved int `json:"saved"`
	}
}

// Error тело ошибки локального API; Fallback подсказывает оболочке запасной путь
type Error struct {
	status   int
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Fallback string `json:"fallback,omitempty"`
}

func (e *Error) Error() string  { return e.Message }
func (e *Error) GetStatus() int { return e.status }

func newError(status int, message string) *Error {
	return &Error{status: status, Message: message}
}
