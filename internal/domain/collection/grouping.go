package collection

// BatchMeta общие поля пакета, взятые из первой записи группы
type BatchMeta struct {
	FarmerID          string
	FarmerName        string
	Route             string
	UserID            string
	ClerkName         string
	Season            string
	DeviceFingerprint string
}

// UploadBatch группа продаж магазина с общим upload-reference
type UploadBatch struct {
	UploadRef string
	Meta      BatchMeta
	Items     []QueuedRecord
	Photo     []byte
}

// Unit единица выгрузки: либо одиночная запись, либо пакет
type Unit struct {
	Single *QueuedRecord
	Batch  *UploadBatch
}

func (u Unit) IsBatch() bool {
	return u.Batch != nil
}

// Type тип записей, входящих в единицу
func (u Unit) Type() RecordType {
	if u.Batch != nil {
		return TypeStoreSale
	}
	if u.Single != nil {
		return u.Single.Type
	}
	return ""
}

// Records записи единицы в исходном порядке
func (u Unit) Records() []QueuedRecord {
	if u.Batch != nil {
		return u.Batch.Items
	}
	if u.Single != nil {
		return []QueuedRecord{*u.Single}
	}
	return nil
}

// RecordIDs идентификаторы всех записей, удаляемых вместе при успехе
func (u Unit) RecordIDs() []string {
	records := u.Records()
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func (u Unit) Len() int {
	return len(u.Records())
}

// Partition разбивает очередь на единицы выгрузки.
// Продажи магазина с непустым upload-reference собираются в пакеты,
// всё остальное выгружается по одной записи. Порядок единиц соответствует
// первому появлению группы во входных данных.
func Partition(records []QueuedRecord) []Unit {
	units := make([]Unit, 0, len(records))
	batchIdx := make(map[string]int)

	for i := range records {
		rec := records[i]
		if rec.Type != TypeStoreSale || rec.Payload.UploadRef == "" {
			units = append(units, Unit{Single: &rec})
			continue
		}

		ref := rec.Payload.UploadRef
		idx, ok := batchIdx[ref]
		if !ok {
			batchIdx[ref] = len(units)
			units = append(units, Unit{Batch: newBatch(rec)})
			continue
		}

		b := units[idx].Batch
		b.Items = append(b.Items, rec)
		if len(b.Photo) == 0 && len(rec.Payload.Photo) > 0 {
			b.Photo = rec.Payload.Photo
		}
	}

	return units
}

func newBatch(first QueuedRecord) *UploadBatch {
	p := first.Payload
	return &UploadBatch{
		UploadRef: p.UploadRef,
		Meta: BatchMeta{
			FarmerID:          p.FarmerID,
			FarmerName:        p.FarmerName,
			Route:             p.Route,
			UserID:            p.UserID,
			ClerkName:         p.ClerkName,
			Season:            p.Season,
			DeviceFingerprint: p.DeviceFingerprint,
		},
		Items: []QueuedRecord{first},
		Photo: p.Photo,
	}
}
