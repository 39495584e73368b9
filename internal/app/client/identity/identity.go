package identity

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slog"
	"golang.org/x/term"
)

const (
	// FingerprintKey ключ, под которым отпечаток хранится в настройках
	FingerprintKey = "device.fingerprint"
	// MinFingerprintLen минимальная длина сохраненного отпечатка, считающегося корректным
	MinFingerprintLen = 16
)

// KeyValue настройки, в которых хранится отпечаток
type KeyValue interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Signals признаки окружения, из которых строится отпечаток
type Signals struct {
	UserAgent        string
	Locale           string
	Screen           string
	Timezone         string
	SurfaceSignature string
}

// Digester криптографический дайджест; ошибка означает, что примитив недоступен
type Digester func(data []byte) (string, error)

// Provider выдает стабильный отпечаток устройства
type Provider struct {
	store   KeyValue
	signals func() Signals
	digest  Digester
	now     func() time.Time
	log     *slog.Logger

	mu     sync.Mutex
	cached string
}

type Option func(*Provider)

// WithSignals задает источник признаков окружения (обычно от оболочки web-view)
func WithSignals(fn func() Signals) Option {
	return func(p *Provider) { p.signals = fn }
}

func WithDigester(d Digester) Option {
	return func(p *Provider) { p.digest = d }
}

func NewProvider(store KeyValue, log *slog.Logger, opts ...Option) *Provider {
	p := &Provider{
		store:   store,
		signals: HostSignals,
		digest:  Blake2Digest,
		now:     time.Now,
		log:     log.With(slog.String("component", "identity")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetFingerprint возвращает сохраненный отпечаток или генерирует и сохраняет новый
func (p *Provider) GetFingerprint(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	stored, ok, err := p.store.GetValue(ctx, FingerprintKey)
	if err != nil {
		return "", fmt.Errorf("read fingerprint: %w", err)
	}
	if ok && len(stored) >= MinFingerprintLen {
		p.cached = stored
		return stored, nil
	}
	if ok {
		p.log.Warn("stored fingerprint is malformed, regenerating", slog.Int("length", len(stored)))
	}

	fp := p.generate()

	if err := p.store.SetValue(ctx, FingerprintKey, fp); err != nil {
		return "", fmt.Errorf("persist fingerprint: %w", err)
	}

	check, ok, err := p.store.GetValue(ctx, FingerprintKey)
	switch {
	case err != nil:
		p.log.Warn("fingerprint verification read failed", slog.Any("error", err))
	case !ok || check != fp:
		p.log.Warn("fingerprint verification mismatch")
	}

	p.cached = fp
	p.log.Info("device fingerprint generated")
	return fp, nil
}

func (p *Provider) generate() string {
	s := p.signals()
	composite := strings.Join([]string{
		s.UserAgent,
		s.Locale,
		s.Screen,
		s.Timezone,
		s.SurfaceSignature,
		uuid.NewString(),
		strconv.FormatInt(p.now().UnixNano(), 10),
	}, "|")

	sum, err := p.digest([]byte(composite))
	if err != nil {
		p.log.Warn("crypto digest unavailable, using fallback hash", slog.Any("error", err))
		return FallbackHash([]byte(composite))
	}
	return sum
}

// Blake2Digest BLAKE2b-256 в шестнадцатеричном виде
func Blake2Digest(data []byte) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HostSignals признаки окружения текущего процесса
func HostSignals() Signals {
	host, _ := os.Hostname()

	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}

	screen := "0x0"
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		screen = fmt.Sprintf("%dx%d", w, h)
	}

	zone, offset := time.Now().Zone()

	return Signals{
		UserAgent:        fmt.Sprintf("milkcollect (%s/%s; %s)", runtime.GOOS, runtime.GOARCH, runtime.Version()),
		Locale:           locale,
		Screen:           screen,
		Timezone:         fmt.Sprintf("%s%+d", zone, offset),
		SurfaceSignature: host + "/" + strconv.Itoa(runtime.NumCPU()),
	}
}
