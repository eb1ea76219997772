package db_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/acquaintance/internal/db"
	"github.com/oggyb/acquaintance/internal/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := db.Open(sqlite.Open(dsn), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return database
}

func TestLikePrimaryKeyRejectsDuplicates(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.SeedMinimalTestData(database))

	err := database.Create(&db.Like{LikerID: 1, LikeeID: 2}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUsernameUniqueIndex(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.SeedMinimalTestData(database))

	err := database.Create(&db.User{Username: "user1", PasswordHash: "x", Gender: db.GenderMale}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSeedTestData(t *testing.T) {
	database := openTestDB(t)
	require.NoError(t, db.SeedTestData(database, logger.Discard()))

	var users int64
	require.NoError(t, database.Model(&db.User{}).Count(&users).Error)
	assert.Equal(t, int64(20), users)

	var sameGender int64
	require.NoError(t, database.Table("likes l").
		Joins("JOIN users a ON a.id = l.liker_id").
		Joins("JOIN users b ON b.id = l.likee_id").
		Where("a.gender = b.gender").
		Count(&sameGender).Error)
	assert.Zero(t, sameGender)
}

func TestUserAge(t *testing.T) {
	u := db.User{DateOfBirth: time.Date(2000, time.March, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 24, u.Age(time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 25, u.Age(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 25, u.Age(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
}
