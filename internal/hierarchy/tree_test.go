package hierarchy

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learnmap-backend/internal/types"
)

func testNode(id uuid.UUID, parent *uuid.UUID, title string, order int) *types.Node {
	return &types.Node{
		ID:        id,
		RoadmapID: uuid.Nil,
		ParentID:  parent,
		Title:     title,
		Type:      types.NodeTypeArticle,
		Status:    types.NodeStatusNotStarted,
		Order:     order,
		CreatedAt: time.Now(),
	}
}

func countTree(roots []*TreeNode) int {
	total := 0
	for _, r := range roots {
		total += 1 + countTree(r.Children)
	}
	return total
}

func TestBuildTreeLinksChildrenToParents(t *testing.T) {
	rootID := uuid.New()
	childAID := uuid.New()
	childBID := uuid.New()
	grandchildID := uuid.New()

	nodes := []*types.Node{
		testNode(rootID, nil, "root", 0),
		testNode(childAID, &rootID, "child-a", 0),
		testNode(childBID, &rootID, "child-b", 1),
		testNode(grandchildID, &childAID, "grandchild", 0),
	}

	roots := BuildTree(nodes)

	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	if countTree(roots) != len(nodes) {
		t.Fatalf("tree holds %d nodes, want %d", countTree(roots), len(nodes))
	}
	root := roots[0]
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}
	if root.Children[0].ID != childAID || root.Children[1].ID != childBID {
		t.Fatalf("children out of order: got %s, %s", root.Children[0].Title, root.Children[1].Title)
	}
	if len(root.Children[0].Children) != 1 || root.Children[0].Children[0].ID != grandchildID {
		t.Fatalf("grandchild not linked under child-a")
	}
}

func TestBuildTreeSortsSiblingsByOrder(t *testing.T) {
	rootID := uuid.New()
	nodes := []*types.Node{
		testNode(rootID, nil, "root", 0),
		testNode(uuid.New(), &rootID, "third", 2),
		testNode(uuid.New(), &rootID, "first", 0),
		testNode(uuid.New(), &rootID, "second", 1),
	}

	roots := BuildTree(nodes)

	got := make([]string, 0, 3)
	for _, c := range roots[0].Children {
		got = append(got, c.Title)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sibling order = %v, want %v", got, want)
		}
	}
}

func TestBuildTreeStableOnOrderTies(t *testing.T) {
	// Callers supply nodes sorted by (order, created_at); equal orders must
	// keep that relative position.
	rootID := uuid.New()
	nodes := []*types.Node{
		testNode(rootID, nil, "root", 0),
		testNode(uuid.New(), &rootID, "older", 0),
		testNode(uuid.New(), &rootID, "newer", 0),
	}

	roots := BuildTree(nodes)

	if roots[0].Children[0].Title != "older" || roots[0].Children[1].Title != "newer" {
		t.Fatalf("tie-break not stable: got %s then %s", roots[0].Children[0].Title, roots[0].Children[1].Title)
	}
}

func TestBuildTreeDemotesOrphansToRoots(t *testing.T) {
	missingParent := uuid.New()
	orphanID := uuid.New()
	nodes := []*types.Node{
		testNode(uuid.New(), nil, "root", 0),
		testNode(orphanID, &missingParent, "orphan", 1),
	}

	roots := BuildTree(nodes)

	if len(roots) != 2 {
		t.Fatalf("expected orphan demoted to root, got %d roots", len(roots))
	}
	if countTree(roots) != 2 {
		t.Fatalf("orphan was dropped")
	}
	found := false
	for _, r := range roots {
		if r.ID == orphanID {
			found = true
		}
	}
	if !found {
		t.Fatalf("orphan not present among roots")
	}
}

func TestBuildTreeEmptyInput(t *testing.T) {
	roots := BuildTree(nil)
	if len(roots) != 0 {
		t.Fatalf("expected empty forest, got %d roots", len(roots))
	}
}

func TestBuildTreePreservesNodeCount(t *testing.T) {
	// Forest size must equal input size for arbitrary parent wiring.
	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
	}
	nodes := []*types.Node{
		testNode(ids[0], nil, "a", 0),
		testNode(ids[1], &ids[0], "b", 0),
		testNode(ids[2], &ids[0], "c", 1),
		testNode(ids[3], &ids[1], "d", 0),
		testNode(ids[4], &ids[3], "e", 0),
		testNode(ids[5], nil, "f", 1),
		testNode(ids[6], &ids[5], "g", 0),
		testNode(ids[7], &ids[9], "h", 0), // parent exists
		testNode(ids[8], &ids[7], "i", 0),
		testNode(ids[9], nil, "j", 2),
	}

	roots := BuildTree(nodes)
	if countTree(roots) != len(nodes) {
		t.Fatalf("tree holds %d nodes, want %d", countTree(roots), len(nodes))
	}
}
