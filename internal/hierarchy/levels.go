package hierarchy

import (
	"github.com/google/uuid"

	"github.com/yungbote/learnmap-backend/internal/types"
)

// BuildLevels arranges nodes into breadth-first levels for the flow view.
// Level 0 holds every parentless node; level n+1 holds the children of level n
// that were not already placed. The processed set keeps inconsistent input from
// placing a node twice. It is not cycle detection: nodes on a true parent cycle
// are never reachable from a root and are silently left out.
func BuildLevels(nodes []*types.Node) [][]*types.Node {
	levels := [][]*types.Node{}
	processed := make(map[uuid.UUID]bool, len(nodes))

	current := []*types.Node{}
	for _, n := range nodes {
		if n.ParentID == nil {
			current = append(current, n)
		}
	}

	for len(current) > 0 {
		levels = append(levels, current)
		for _, n := range current {
			processed[n.ID] = true
		}

		next := []*types.Node{}
		for _, parent := range current {
			for _, n := range nodes {
				if n.ParentID != nil && *n.ParentID == parent.ID && !processed[n.ID] {
					next = append(next, n)
				}
			}
		}
		current = next
	}

	return levels
}
