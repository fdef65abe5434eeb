package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/requestdata"
	"github.com/yungbote/learnmap-backend/internal/types"
)

// testFixture bundles the seeded state most service tests start from.
type testFixture struct {
	db      *gorm.DB
	user    *types.User
	ctx     context.Context
	roadmap *types.Roadmap
}

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// openTestDB gives each test its own shared in-memory database. The shared
// cache keeps every pooled connection pointed at the same store; naming the
// DSN after the test isolates tests from each other.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Roadmap{},
		&types.Node{},
		&types.UserEvent{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) (*types.User, context.Context) {
	t.Helper()
	now := time.Now()
	user := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "irrelevant-hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(user).Error)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})
	return user, ctx
}

func seedRoadmap(t *testing.T, db *gorm.DB, userID uuid.UUID, title string) *types.Roadmap {
	t.Helper()
	now := time.Now()
	roadmap := &types.Roadmap{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		DailyFocusTime: types.DefaultDailyFocusTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(roadmap).Error)
	return roadmap
}

func seedNode(t *testing.T, db *gorm.DB, roadmapID uuid.UUID, title string, parentID *uuid.UUID, order int) *types.Node {
	t.Helper()
	now := time.Now()
	node := &types.Node{
		ID:        uuid.New(),
		RoadmapID: roadmapID,
		ParentID:  parentID,
		Title:     title,
		Type:      types.NodeTypeArticle,
		Status:    types.NodeStatusNotStarted,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(node).Error)
	return node
}
