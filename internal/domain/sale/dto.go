package sale

import "time"

// CollectionRequest POST /api/milk-collections
type CollectionRequest struct {
	TransactionRef    string    `json:"transaction_ref" minLength:"1" doc:"Идентификатор транзакции на устройстве"`
	FarmerID          string    `json:"farmer_id" minLength:"1" doc:"Фермер"`
	FarmerName        string    `json:"farmer_name,omitempty"`
	Route             string    `json:"route,omitempty"`
	Session           string    `json:"session,omitempty" doc:"Утренний или вечерний сбор"`
	Quantity          float64   `json:"quantity" exclusiveMinimum:"0" doc:"Литры или килограммы"`
	UserID            string    `json:"user_id,omitempty"`
	ClerkName         string    `json:"clerk_name,omitempty"`
	Season            string    `json:"season,omitempty"`
	WeightSource      string    `json:"weight_source,omitempty" doc:"manual или идентификатор весов"`
	DeviceFingerprint string    `json:"device_fingerprint" minLength:"16"`
	CapturedAt        time.Time `json:"captured_at,omitempty"`
}

// SaleRequest POST /api/store-sales и /api/ai-sales
type SaleRequest struct {
	TransactionRef    string    `json:"transaction_ref" minLength:"1"`
	UploadRef         string    `json:"upload_ref,omitempty"`
	FarmerID          string    `json:"farmer_id" minLength:"1"`
	FarmerName        string    `json:"farmer_name,omitempty"`
	Route             string    `json:"route,omitempty"`
	ItemCode          string    `json:"item_code" minLength:"1"`
	ItemName          string    `json:"item_name,omitempty"`
	Quantity          float64   `json:"quantity" exclusiveMinimum:"0"`
	Price             float64   `json:"price,omitempty" minimum:"0"`
	UserID            string    `json:"user_id,omitempty"`
	SoldBy            string    `json:"sold_by,omitempty"`
	Season            string    `json:"season,omitempty"`
	Photo             []byte    `json:"photo,omitempty" doc:"Фото в base64"`
	DeviceFingerprint string    `json:"device_fingerprint" minLength:"16"`
	CapturedAt        time.Time `json:"captured_at,omitempty"`
}

// SaleItem позиция пакетной продажи
type SaleItem struct {
	TransactionRef string  `json:"transaction_ref" minLength:"1"`
	ItemCode       string  `json:"item_code" minLength:"1"`
	ItemName       string  `json:"item_name,omitempty"`
	Quantity       float64 `json:"quantity" exclusiveMinimum:"0"`
	Price          float64 `json:"price,omitempty" minimum:"0"`
}

// BatchSaleRequest POST /api/store-sales/batch
type BatchSaleRequest struct {
	UploadRef         string     `json:"upload_ref" minLength:"1" doc:"Ключ пакета"`
	FarmerID          string     `json:"farmer_id" minLength:"1"`
	FarmerName        string     `json:"farmer_name,omitempty"`
	Route             string     `json:"route,omitempty"`
	UserID            string     `json:"user_id,omitempty"`
	SoldBy            string     `json:"sold_by,omitempty"`
	Season            string     `json:"season,omitempty"`
	Photo             []byte     `json:"photo,omitempty"`
	DeviceFingerprint string     `json:"device_fingerprint" minLength:"16"`
	Items             []SaleItem `json:"items" minItems:"1"`
}

// SaleResponse общий конверт ответа на создание
type SaleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty" doc:"DUPLICATE для уже принятой транзакции"`
	ID      string `json:"id,omitempty"`
}
