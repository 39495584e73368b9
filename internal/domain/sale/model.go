package sale

import "time"

// Kind вид продажи
type Kind string

const (
	KindStore Kind = "store"
	KindAI    Kind = "ai"
)

// Collection принятый сбор молока
type Collection struct {
	ID                string
	TransactionRef    string
	FarmerID          string
	FarmerName        string
	Route             string
	Session           string
	Quantity          float64
	UserID            string
	ClerkName         string
	Season            string
	WeightSource      string
	DeviceFingerprint string
	CapturedAt        time.Time
	CreatedAt         time.Time
}

// Sale принятая продажа (магазин или ИО)
type Sale struct {
	ID                string
	Kind              Kind
	TransactionRef    string
	UploadRef         string
	FarmerID          string
	FarmerName        string
	Route             string
	ItemCode          string
	ItemName          string
	Quantity          float64
	Price             float64
	UserID            string
	SoldBy            string
	Season            string
	Photo             []byte
	DeviceFingerprint string
	CapturedAt        time.Time
	CreatedAt         time.Time
}

// Batch принятый пакет продаж магазина
type Batch struct {
	UploadRef string
	Sales     []Sale
}
