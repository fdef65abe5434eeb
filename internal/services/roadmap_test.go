package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/types"
)

func newRoadmapService(t *testing.T) (RoadmapService, *testFixture) {
	t.Helper()
	db := openTestDB(t)
	log := testLogger()
	user, ctx := seedUser(t, db, "roadmaps@example.com")
	svc := NewRoadmapService(db, log,
		repos.NewRoadmapRepo(db, log),
		repos.NewNodeRepo(db, log),
		repos.NewUserEventRepo(db, log),
	)
	return svc, &testFixture{db: db, user: user, ctx: ctx}
}

func TestCreateRoadmapSeedsIntroNode(t *testing.T) {
	svc, fx := newRoadmapService(t)

	roadmap, err := svc.CreateRoadmap(fx.ctx, CreateRoadmapInput{Title: "  Learn Rust  "})
	require.NoError(t, err)
	require.Equal(t, "Learn Rust", roadmap.Title)
	require.Equal(t, types.DefaultDailyFocusTime, roadmap.DailyFocusTime)
	require.Equal(t, fx.user.ID, roadmap.UserID)

	var nodes []*types.Node
	require.NoError(t, fx.db.Where("roadmap_id = ?", roadmap.ID).Find(&nodes).Error)
	require.Len(t, nodes, 1)
	require.Equal(t, "Intro", nodes[0].Title)
	require.Nil(t, nodes[0].ParentID)

	var events []*types.UserEvent
	require.NoError(t, fx.db.Where("user_id = ?", fx.user.ID).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, types.UserEventRoadmapCreated, events[0].Type)
}

func TestCreateRoadmapValidation(t *testing.T) {
	svc, fx := newRoadmapService(t)

	_, err := svc.CreateRoadmap(fx.ctx, CreateRoadmapInput{Title: "   "})
	require.Error(t, err)
	status, code := apierr.Status(err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "validation", code)

	negative := -10
	_, err = svc.CreateRoadmap(fx.ctx, CreateRoadmapInput{Title: "x", DailyFocusTime: &negative})
	require.Error(t, err)
}

func TestUpdateRoadmapPatchesFields(t *testing.T) {
	svc, fx := newRoadmapService(t)
	roadmap := seedRoadmap(t, fx.db, fx.user.ID, "Before")

	title := "After"
	focus := 90
	updated, err := svc.UpdateRoadmap(fx.ctx, roadmap.ID, RoadmapPatch{Title: &title, DailyFocusTime: &focus})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Title)
	require.Equal(t, 90, updated.DailyFocusTime)

	empty := "  "
	_, err = svc.UpdateRoadmap(fx.ctx, roadmap.ID, RoadmapPatch{Title: &empty})
	require.Error(t, err)
}

func TestDeleteRoadmapCascadesNodes(t *testing.T) {
	svc, fx := newRoadmapService(t)
	roadmap := seedRoadmap(t, fx.db, fx.user.ID, "Doomed")
	root := seedNode(t, fx.db, roadmap.ID, "Root", nil, 0)
	seedNode(t, fx.db, roadmap.ID, "Child", &root.ID, 0)

	require.NoError(t, svc.DeleteRoadmap(fx.ctx, roadmap.ID))

	var nodeCount int64
	require.NoError(t, fx.db.Model(&types.Node{}).Where("roadmap_id = ?", roadmap.ID).Count(&nodeCount).Error)
	require.Zero(t, nodeCount)
	var roadmapCount int64
	require.NoError(t, fx.db.Model(&types.Roadmap{}).Where("id = ?", roadmap.ID).Count(&roadmapCount).Error)
	require.Zero(t, roadmapCount)
}

func TestRoadmapOwnershipEnforced(t *testing.T) {
	svc, fx := newRoadmapService(t)
	roadmap := seedRoadmap(t, fx.db, fx.user.ID, "Mine")
	_, strangerCtx := seedUser(t, fx.db, "stranger@example.com")

	_, err := svc.GetRoadmap(strangerCtx, nil, roadmap.ID)
	require.Error(t, err)
	status, code := apierr.Status(err)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "forbidden", code)

	err = svc.DeleteRoadmap(strangerCtx, roadmap.ID)
	require.Error(t, err)
}

func TestListRoadmapsScopedToUser(t *testing.T) {
	svc, fx := newRoadmapService(t)
	seedRoadmap(t, fx.db, fx.user.ID, "Mine")
	other, _ := seedUser(t, fx.db, "other@example.com")
	seedRoadmap(t, fx.db, other.ID, "Theirs")

	roadmaps, err := svc.ListRoadmaps(fx.ctx, nil)
	require.NoError(t, err)
	require.Len(t, roadmaps, 1)
	require.Equal(t, "Mine", roadmaps[0].Title)
}

func TestGetProgressSummarizesNodes(t *testing.T) {
	svc, fx := newRoadmapService(t)
	roadmap := seedRoadmap(t, fx.db, fx.user.ID, "Half done")

	now := time.Now()
	done := seedNode(t, fx.db, roadmap.ID, "Done", nil, 0)
	require.NoError(t, fx.db.Model(done).Updates(map[string]interface{}{
		"status":        types.NodeStatusCompleted,
		"time_estimate": 30,
		"completed_at":  now,
	}).Error)
	pending := seedNode(t, fx.db, roadmap.ID, "Pending", nil, 1)
	require.NoError(t, fx.db.Model(pending).Update("time_estimate", 70).Error)

	progress, err := svc.GetProgress(fx.ctx, roadmap.ID)
	require.NoError(t, err)
	require.Equal(t, 50, progress.ItemPercent)
	require.Equal(t, 100, progress.TotalMinutes)
	require.Equal(t, 30, progress.CompletedMinutes)
	require.Equal(t, 70, progress.RemainingMinutes)
	// 70 remaining at 60 minutes a day rounds up to 2 days.
	require.Equal(t, 2, progress.DaysRemaining)
	require.WithinDuration(t, now.AddDate(0, 0, 2), progress.ProjectedDate, 5*time.Second)
}
