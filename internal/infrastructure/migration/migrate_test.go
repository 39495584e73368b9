package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"milkcollect/internal/app/server/config"
)

// MockMigrator мок Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.DB.DatabaseURI = "postgres://collector@localhost/milk"
	cfg.DB.Migrations = "migrations"
	return cfg
}

func TestMigration_Up(t *testing.T) {
	tests := []struct {
		name     string
		upErr    error
		closeSrc error
		closeDB  error
		wantErr  bool
	}{
		{name: "applied", upErr: nil},
		// ErrNoChange не должна считаться ошибкой в методе Up()
		{name: "no change", upErr: migrate.ErrNoChange},
		{name: "up failure", upErr: errors.New("syntax error"), wantErr: true},
		{name: "close failure", closeDB: errors.New("conn reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockM := new(MockMigrator)
			mockM.On("Up").Return(tt.upErr)
			mockM.On("Version").Return(uint(1), false, nil).Maybe()
			mockM.On("Close").Return(tt.closeSrc, tt.closeDB)

			var gotSource, gotDB string
			engine := func(source, db string) (Migrator, error) {
				gotSource, gotDB = source, db
				return mockM, nil
			}

			err := NewMigration(testConfig(), engine, slog.Default()).Up()

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, "file://migrations", gotSource)
			assert.Equal(t, "postgres://collector@localhost/milk", gotDB)
			mockM.AssertExpectations(t)
		})
	}
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func(source, db string) (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	err := NewMigration(testConfig(), engine, slog.Default()).Up()

	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}
