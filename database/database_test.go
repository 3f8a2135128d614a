package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trade-journal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func TestCreateInBatches(t *testing.T) {
	db := setupTestDB(t)

	strategies := make([]models.Strategy, 7)
	for i := range strategies {
		strategies[i] = models.Strategy{UserID: 1, Name: "s"}
	}

	require.NoError(t, CreateInBatches(db, strategies, 3))

	var count int64
	require.NoError(t, db.Model(&models.Strategy{}).Count(&count).Error)
	assert.Equal(t, int64(7), count)
	for _, s := range strategies {
		assert.NotZero(t, s.ID, "generated IDs should be written back")
	}
}

func TestCreateInBatches_InvalidInput(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name      string
		data      interface{}
		batchSize int
		expected  error
	}{
		{name: "zero batch size", data: []models.Strategy{{Name: "a"}}, batchSize: 0, expected: ErrInvalidBatchSize},
		{name: "not a slice", data: models.Strategy{Name: "a"}, batchSize: 10, expected: ErrInvalidData},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, CreateInBatches(db, tc.data, tc.batchSize), tc.expected)
		})
	}
}

func TestCreateInBatches_Empty(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, CreateInBatches(db, []models.Strategy{}, 10))
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	created, err := Seed(db, now)
	require.NoError(t, err)
	assert.True(t, created)

	var user models.User
	require.NoError(t, db.Where("email = ?", DemoEmail).First(&user).Error)

	var trades []models.Trade
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&trades).Error)
	assert.Len(t, trades, 4)

	var portfolio models.Portfolio
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&portfolio).Error)
	assert.True(t, decimal.NewFromInt(25000).Equal(portfolio.CurrentBalance), portfolio.CurrentBalance.String())

	created, err = Seed(db, now)
	require.NoError(t, err)
	assert.False(t, created, "second run should be a no-op")
}
