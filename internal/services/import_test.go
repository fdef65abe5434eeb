package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/types"
)

func TestParseCSVRows(t *testing.T) {
	t.Run("basic_rows", func(t *testing.T) {
		records := ParseCSVRows("title,type,timeEstimate,status\nIntro,article,30,completed\nPractice,project,120,not_started\n")
		require.Len(t, records, 2)
		require.Equal(t, ImportRecord{Title: "Intro", Type: "article", TimeEstimate: 30, Status: "completed"}, records[0])
		require.Equal(t, ImportRecord{Title: "Practice", Type: "project", TimeEstimate: 120, Status: "not_started"}, records[1])
	})

	t.Run("header_synonyms", func(t *testing.T) {
		records := ParseCSVRows("Title,time_estimate,parent_title,url,notes\nChild,45,Intro,https://example.com,some text")
		require.Len(t, records, 1)
		require.Equal(t, "Child", records[0].Title)
		require.Equal(t, 45, records[0].TimeEstimate)
		require.Equal(t, "Intro", records[0].ParentTitle)
		require.Equal(t, "https://example.com", records[0].ResourceURL)
		require.Equal(t, "some text", records[0].Content)
	})

	t.Run("short_rows_pad_empty", func(t *testing.T) {
		records := ParseCSVRows("title,type,topic\nOnly a title")
		require.Len(t, records, 1)
		require.Equal(t, "Only a title", records[0].Title)
		require.Empty(t, records[0].Type)
		require.Empty(t, records[0].Topic)
	})

	t.Run("bad_minutes_clamp_to_zero", func(t *testing.T) {
		records := ParseCSVRows("title,timeestimate\nA,-10\nB,notanumber")
		require.Len(t, records, 2)
		require.Zero(t, records[0].TimeEstimate)
		require.Zero(t, records[1].TimeEstimate)
	})

	t.Run("blank_lines_skipped", func(t *testing.T) {
		records := ParseCSVRows("title\n\nA\n\n\nB\n")
		require.Len(t, records, 2)
	})

	t.Run("header_only", func(t *testing.T) {
		require.Empty(t, ParseCSVRows("title,type"))
		require.Empty(t, ParseCSVRows(""))
	})
}

func newImportService(t *testing.T) (ImportService, *testFixture) {
	t.Helper()
	db := openTestDB(t)
	log := testLogger()
	user, ctx := seedUser(t, db, "import@example.com")
	roadmap := seedRoadmap(t, db, user.ID, "Imported")
	svc := NewImportService(db, log,
		repos.NewRoadmapRepo(db, log),
		repos.NewNodeRepo(db, log),
		repos.NewUserEventRepo(db, log),
	)
	return svc, &testFixture{db: db, user: user, ctx: ctx, roadmap: roadmap}
}

func TestImportNodesLinksParentsByTitle(t *testing.T) {
	svc, fx := newImportService(t)

	result, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{
		{Title: "Basics", Type: "course", TimeEstimate: 60},
		{Title: "Variables", ParentTitle: "Basics", TimeEstimate: 30},
		{Title: "Functions", ParentTitle: "Basics", TimeEstimate: 30},
		{Title: "Closures", ParentTitle: "Functions", TimeEstimate: 20},
	})
	require.NoError(t, err)
	require.Equal(t, 4, result.Count)

	nodes := nodesByTitle(t, fx)
	require.Len(t, nodes, 4)
	require.Nil(t, nodes["Basics"].ParentID)
	require.Equal(t, nodes["Basics"].ID, *nodes["Variables"].ParentID)
	require.Equal(t, nodes["Basics"].ID, *nodes["Functions"].ParentID)
	require.Equal(t, nodes["Functions"].ID, *nodes["Closures"].ParentID)

	// Row position becomes the sibling order.
	require.Equal(t, 0, nodes["Basics"].Order)
	require.Equal(t, 3, nodes["Closures"].Order)
}

func TestImportNodesUnknownParentStaysRoot(t *testing.T) {
	svc, fx := newImportService(t)

	_, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{
		{Title: "Orphan", ParentTitle: "No such row"},
	})
	require.NoError(t, err)

	nodes := nodesByTitle(t, fx)
	require.Nil(t, nodes["Orphan"].ParentID)
}

func TestImportNodesDuplicateTitleFirstMatchWins(t *testing.T) {
	svc, fx := newImportService(t)

	_, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{
		{Title: "Twin"},
		{Title: "Twin"},
		{Title: "Child", ParentTitle: "Twin"},
	})
	require.NoError(t, err)

	var nodes []*types.Node
	require.NoError(t, fx.db.Where("roadmap_id = ?", fx.roadmap.ID).Order(`"order" ASC`).Find(&nodes).Error)
	require.Len(t, nodes, 3)
	firstTwin := nodes[0]
	child := nodes[2]
	require.NotNil(t, child.ParentID)
	require.Equal(t, firstTwin.ID, *child.ParentID)
}

func TestImportNodesDefaultsAndValidation(t *testing.T) {
	svc, fx := newImportService(t)

	_, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{{Title: "Plain"}})
	require.NoError(t, err)
	nodes := nodesByTitle(t, fx)
	require.Equal(t, types.NodeTypeArticle, nodes["Plain"].Type)
	require.Equal(t, types.NodeStatusNotStarted, nodes["Plain"].Status)

	_, err = svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{{Title: "Bad", Type: "podcast"}})
	require.Error(t, err)
	status, code := apierr.Status(err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "validation", code)

	_, err = svc.ImportNodes(fx.ctx, fx.roadmap.ID, nil)
	require.Error(t, err)
	status, _ = apierr.Status(err)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestImportNodesCompletedRowsGetTimestamp(t *testing.T) {
	svc, fx := newImportService(t)

	_, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{
		{Title: "Done", Status: types.NodeStatusCompleted},
	})
	require.NoError(t, err)
	nodes := nodesByTitle(t, fx)
	require.NotNil(t, nodes["Done"].CompletedAt)
}

func TestImportNodesRecordsEvent(t *testing.T) {
	svc, fx := newImportService(t)

	_, err := svc.ImportNodes(fx.ctx, fx.roadmap.ID, []ImportRecord{{Title: "A"}, {Title: "B"}})
	require.NoError(t, err)

	var events []*types.UserEvent
	require.NoError(t, fx.db.Where("user_id = ?", fx.user.ID).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, types.UserEventNodesImported, events[0].Type)
}

func TestImportNodesRequiresOwnership(t *testing.T) {
	svc, fx := newImportService(t)
	_, strangerCtx := seedUser(t, fx.db, "stranger@example.com")

	_, err := svc.ImportNodes(strangerCtx, fx.roadmap.ID, []ImportRecord{{Title: "Nope"}})
	require.Error(t, err)
	status, _ := apierr.Status(err)
	require.Equal(t, http.StatusForbidden, status)
}

func nodesByTitle(t *testing.T, fx *testFixture) map[string]*types.Node {
	t.Helper()
	var nodes []*types.Node
	require.NoError(t, fx.db.Where("roadmap_id = ?", fx.roadmap.ID).Find(&nodes).Error)
	out := map[string]*types.Node{}
	for _, n := range nodes {
		if _, seen := out[n.Title]; !seen {
			out[n.Title] = n
		}
	}
	return out
}
