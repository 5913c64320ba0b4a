package model_test

import (
	"testing"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/database"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema must migrate and assign IDs on a database with no uuid
// generation function of its own.
func TestMigrateAndCreateOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	wing := model.Wing{Name: "Signals Wing"}
	require.NoError(t, db.Create(&wing).Error)
	assert.NotEqual(t, uuid.Nil, wing.ID)

	user := model.User{Username: "keeper", Email: "keeper@example.com", Password: "x", Role: model.RoleStoreKeeper}
	require.NoError(t, db.Create(&user).Error)
	assert.NotEqual(t, uuid.Nil, user.ID)

	entry := model.AuditEntry{RequestID: uuid.New(), Seq: 1, Action: model.ActionSubmitted, ActorID: user.ID, ActorRole: model.RoleRequester}
	require.NoError(t, db.Create(&entry).Error)
	assert.NotEqual(t, uuid.Nil, entry.ID)
}
