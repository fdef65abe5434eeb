package hierarchy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/learnmap-backend/internal/types"
)

// TreeNode wraps a node with its resolved children for the tree view.
type TreeNode struct {
	*types.Node
	Children []*TreeNode `json:"children"`
}

// BuildTree assembles a flat node list into a forest. Nodes whose parent id is
// missing from the input (parent deleted, or pointing outside the roadmap) are
// demoted to roots rather than dropped. Sibling lists are sorted by ascending
// order; the sort is stable, so callers that supply the list sorted by
// (order, created_at) get deterministic tie-breaks by creation time.
func BuildTree(nodes []*types.Node) []*TreeNode {
	nodeMap := make(map[uuid.UUID]*TreeNode, len(nodes))
	for _, n := range nodes {
		nodeMap[n.ID] = &TreeNode{Node: n, Children: []*TreeNode{}}
	}

	roots := []*TreeNode{}
	for _, n := range nodes {
		treeNode := nodeMap[n.ID]
		if n.ParentID != nil {
			if parent, ok := nodeMap[*n.ParentID]; ok && parent != treeNode {
				parent.Children = append(parent.Children, treeNode)
				continue
			}
		}
		roots = append(roots, treeNode)
	}

	sortTree(roots)
	return roots
}

func sortTree(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})
	for _, n := range nodes {
		sortTree(n.Children)
	}
}
