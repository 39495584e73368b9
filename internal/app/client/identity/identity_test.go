package identity

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	lossy  bool
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (s *mapStore) GetValue(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *mapStore) SetValue(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lossy {
		return nil
	}
	s.values[key] = value
	return nil
}

// MockKeyValue мок хранилища настроек
type MockKeyValue struct {
	mock.Mock
}

func (m *MockKeyValue) GetValue(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKeyValue) SetValue(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func fixedSignals() Signals {
	return Signals{UserAgent: "test-agent", Locale: "en_KE", Screen: "720x1280", Timezone: "EAT+10800", SurfaceSignature: "gpu"}
}

func TestProvider_GetFingerprint_Idempotent(t *testing.T) {
	store := newMapStore()
	p := NewProvider(store, slog.Default(), WithSignals(fixedSignals))
	ctx := context.Background()

	first, err := p.GetFingerprint(ctx)
	require.NoError(t, err)
	second, err := p.GetFingerprint(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, hex64, first)
	assert.Equal(t, first, store.values[FingerprintKey])
}

func TestProvider_GetFingerprint_SurvivesRestart(t *testing.T) {
	store := newMapStore()
	ctx := context.Background()

	first, err := NewProvider(store, slog.Default()).GetFingerprint(ctx)
	require.NoError(t, err)

	// новый экземпляр провайдера поверх того же хранилища
	second, err := NewProvider(store, slog.Default()).GetFingerprint(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProvider_GetFingerprint_UsesStoredValue(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		regenerate bool
	}{
		{name: "well formed", stored: "0123456789abcdef0123", regenerate: false},
		{name: "too short", stored: "abc", regenerate: true},
		{name: "empty", stored: "", regenerate: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMapStore()
			store.values[FingerprintKey] = tt.stored
			p := NewProvider(store, slog.Default(), WithSignals(fixedSignals))

			fp, err := p.GetFingerprint(context.Background())
			require.NoError(t, err)

			if tt.regenerate {
				assert.NotEqual(t, tt.stored, fp)
				assert.Regexp(t, hex64, fp)
				return
			}
			assert.Equal(t, tt.stored, fp)
		})
	}
}

func TestProvider_GetFingerprint_FallbackHash(t *testing.T) {
	store := newMapStore()
	p := NewProvider(store, slog.Default(),
		WithSignals(fixedSignals),
		WithDigester(func([]byte) (string, error) { return "", errors.New("no crypto") }),
	)

	fp, err := p.GetFingerprint(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, hex64, fp)
	assert.Equal(t, fp, store.values[FingerprintKey])
}

func TestProvider_GetFingerprint_VerifyMismatchIsNotFatal(t *testing.T) {
	store := newMapStore()
	store.lossy = true
	p := NewProvider(store, slog.Default(), WithSignals(fixedSignals))
	ctx := context.Background()

	first, err := p.GetFingerprint(ctx)
	require.NoError(t, err)
	second, err := p.GetFingerprint(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProvider_GetFingerprint_PersistError(t *testing.T) {
	kv := new(MockKeyValue)
	kv.On("GetValue", mock.Anything, FingerprintKey).Return("", false, nil)
	kv.On("SetValue", mock.Anything, FingerprintKey, mock.AnythingOfType("string")).Return(errors.New("disk full"))

	p := NewProvider(kv, slog.Default(), WithSignals(fixedSignals))
	_, err := p.GetFingerprint(context.Background())

	assert.Error(t, err)
	kv.AssertExpectations(t)
}

func TestProvider_GetFingerprint_Concurrent(t *testing.T) {
	store := newMapStore()
	p := NewProvider(store, slog.Default())
	ctx := context.Background()

	const n = 16
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp, err := p.GetFingerprint(ctx)
			assert.NoError(t, err)
			results[i] = fp
		}(i)
	}
	wg.Wait()

	for _, fp := range results {
		assert.Equal(t, results[0], fp)
	}
}
