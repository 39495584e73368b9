package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/domain/collection"
)

// WeightReading одно показание весов
type WeightReading struct {
	Value float64   `json:"value"`
	Tag   string    `json:"tag,omitempty"`
	At    time.Time `json:"at"`
}

// WeightSource источник показаний. Поток бесконечный и не перезапускается:
// канал закрывается при отключении весов или отмене контекста.
type WeightSource interface {
	Connect(ctx context.Context) (<-chan WeightReading, error)
}

var errSourceConsumed = errors.New("weight source already connected")

// LineWeightSource читает строки "вес[,метка]" из потока оболочки
type LineWeightSource struct {
	r    io.Reader
	log  *slog.Logger
	once sync.Once
	now  func() time.Time
}

func NewLineWeightSource(r io.Reader, log *slog.Logger) *LineWeightSource {
	return &LineWeightSource{
		r:   r,
		log: log.With(slog.String("component", "scale")),
		now: time.Now,
	}
}

func (s *LineWeightSource) Connect(ctx context.Context) (<-chan WeightReading, error) {
	err := errSourceConsumed
	s.once.Do(func() { err = nil })
	if err != nil {
		return nil, err
	}

	out := make(chan WeightReading)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			reading, err := ParseWeightLine(scanner.Text())
			if err != nil {
				s.log.Debug("skipping scale line", slog.Any("error", err))
				continue
			}
			reading.At = s.now().UTC()

			select {
			case out <- reading:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.log.Warn("scale stream failed", slog.Any("error", err))
		}
	}()
	return out, nil
}

// ParseWeightLine разбирает "12.5" или "12.5,cow-7"
func ParseWeightLine(line string) (WeightReading, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return WeightReading{}, errors.New("empty line")
	}

	value, tag, _ := strings.Cut(line, ",")
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return WeightReading{}, fmt.Errorf("parse weight %q: %w", value, err)
	}
	if v < 0 {
		return WeightReading{}, fmt.Errorf("negative weight %v", v)
	}
	return WeightReading{Value: v, Tag: strings.TrimSpace(tag)}, nil
}

// WeightMonitor хранит последнее показание и транслирует показания в шину событий
type WeightMonitor struct {
	bus *Bus
	log *slog.Logger

	mu        sync.RWMutex
	latest    WeightReading
	has       bool
	connected bool
}

func NewWeightMonitor(bus *Bus, log *slog.Logger) *WeightMonitor {
	return &WeightMonitor{
		bus: bus,
		log: log.With(slog.String("component", "weight")),
	}
}

// Run читает поток до его окончания. Окончание потока без отмены контекста
// означает отключение весов и возвращается как ErrScaleDisconnected.
func (m *WeightMonitor) Run(ctx context.Context, src WeightSource) error {
	readings, err := src.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect scale: %w", err)
	}

	m.setConnected(true)
	defer m.setConnected(false)

	for reading := range readings {
		m.mu.Lock()
		m.latest = reading
		m.has = true
		m.mu.Unlock()

		m.bus.Publish(EventWeightReading, reading)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.log.Warn("scale disconnected")
	m.bus.Publish(EventScaleDisconnected, nil)
	return collection.ErrScaleDisconnected
}

// Latest последнее показание; false, если показаний ещё не было
func (m *WeightMonitor) Latest() (WeightReading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.has
}

func (m *WeightMonitor) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *WeightMonitor) setConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = v
}
