package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"vidtube/internal/model"
)

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("oracle", "")
	assert.ErrorContains(t, err, `unsupported db driver "oracle"`)
}

func TestNew_RecordNotFoundIsNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	gormDB, err := New("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, Migrate(gormDB))

	var user model.User
	err = gormDB.WithContext(context.Background()).Where("username = ?", "ghost").First(&user).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	// Real failures still reach zap.
	gormDB.Logger.Error(context.Background(), "boom %s", "here")
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "boom here")
	assert.Equal(t, "gorm", logs.All()[0].LoggerName)
}
