package collection

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateReceipt(t *testing.T) {
	cache := []PrintedReceipt{
		{ID: "1", Receipt: Receipt{FarmerID: "F1", Type: TypeMilkCollection, References: []string{"TXN-1", "TXN-2"}}},
		{ID: "2", Receipt: Receipt{FarmerID: "F2", Type: TypeStoreSale, References: []string{"TXN-9"}, UploadRef: "BA7"}},
	}

	tests := []struct {
		name    string
		receipt Receipt
		want    bool
	}{
		{
			name:    "same farmer type and references",
			receipt: Receipt{FarmerID: "F1", Type: TypeMilkCollection, References: []string{"TXN-1", "TXN-2"}},
			want:    true,
		},
		{
			name:    "references in different order",
			receipt: Receipt{FarmerID: "F1", Type: TypeMilkCollection, References: []string{"TXN-2", "TXN-1"}},
			want:    false,
		},
		{
			name:    "same references different type",
			receipt: Receipt{FarmerID: "F1", Type: TypeAISale, References: []string{"TXN-1", "TXN-2"}},
			want:    false,
		},
		{
			name:    "store sale with same upload ref",
			receipt: Receipt{FarmerID: "F3", Type: TypeStoreSale, References: []string{"TXN-10"}, UploadRef: "BA7"},
			want:    true,
		},
		{
			name:    "ai sale with store upload ref",
			receipt: Receipt{FarmerID: "F3", Type: TypeAISale, References: []string{"TXN-10"}, UploadRef: "BA7"},
			want:    false,
		},
		{
			name:    "new receipt",
			receipt: Receipt{FarmerID: "F1", Type: TypeMilkCollection, References: []string{"TXN-3"}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateReceipt(cache, tt.receipt))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"structured code", &UploadError{Status: http.StatusBadRequest, Code: DuplicateCode, Message: "rejected"}, true},
		{"conflict status", &UploadError{Status: http.StatusConflict, Message: "conflict"}, true},
		{"sentinel", fmt.Errorf("upload: %w", ErrDuplicateOnServer), true},
		{"legacy text duplicate", errors.New("Duplicate entry for transaction"), true},
		{"legacy text already exists", errors.New("record ALREADY EXISTS"), true},
		{"server failure", &UploadError{Status: http.StatusInternalServerError, Message: "boom"}, false},
		{"network", ErrNetworkUnreachable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateError(tt.err))
		})
	}
}
