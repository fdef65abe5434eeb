package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/hierarchy"
	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/normalization"
	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/types"
)

type NodeInput struct {
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	Topic        string     `json:"topic"`
	ResourceURL  string     `json:"resource_url"`
	TimeEstimate int        `json:"time_estimate"`
	Status       string     `json:"status"`
	Content      string     `json:"content"`
	ParentID     *uuid.UUID `json:"parent_id"`
	Order        int        `json:"order"`
}

// NodePatch carries a partial node update. ParentIDSet distinguishes "leave
// the parent alone" from "set it to null" (promote to root).
type NodePatch struct {
	Title        *string
	Type         *string
	Topic        *string
	ResourceURL  *string
	TimeEstimate *int
	Status       *string
	Content      *string
	Order        *int
	ParentID     *uuid.UUID
	ParentIDSet  bool
}

type ReorderUpdate struct {
	ID       uuid.UUID  `json:"id"`
	ParentID *uuid.UUID `json:"parent_id"`
	Order    int        `json:"order"`
}

type NodeService interface {
	ListNodes(ctx context.Context, roadmapID uuid.UUID) ([]*types.Node, error)
	GetTree(ctx context.Context, roadmapID uuid.UUID) ([]*hierarchy.TreeNode, error)
	GetLevels(ctx context.Context, roadmapID uuid.UUID) ([][]*types.Node, error)
	CreateNode(ctx context.Context, roadmapID uuid.UUID, input NodeInput) (*types.Node, error)
	UpdateNode(ctx context.Context, id uuid.UUID, patch NodePatch) (*types.Node, error)
	DeleteNode(ctx context.Context, id uuid.UUID) error
	BatchReorder(ctx context.Context, roadmapID uuid.UUID, updates []ReorderUpdate) ([]*types.Node, error)
}

type nodeService struct {
	db            *gorm.DB
	log           *logger.Logger
	roadmapRepo   repos.RoadmapRepo
	nodeRepo      repos.NodeRepo
	userEventRepo repos.UserEventRepo
}

func NewNodeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	nodeRepo repos.NodeRepo,
	userEventRepo repos.UserEventRepo,
) NodeService {
	serviceLog := baseLog.With("service", "NodeService")
	return &nodeService{
		db:            db,
		log:           serviceLog,
		roadmapRepo:   roadmapRepo,
		nodeRepo:      nodeRepo,
		userEventRepo: userEventRepo,
	}
}

func (ns *nodeService) ListNodes(ctx context.Context, roadmapID uuid.UUID) ([]*types.Node, error) {
	if _, err := loadOwnedRoadmap(ctx, nil, ns.roadmapRepo, roadmapID); err != nil {
		return nil, err
	}
	nodes, err := ns.nodeRepo.GetByRoadmapID(ctx, nil, roadmapID)
	if err != nil {
		ns.log.Error("ListNodes failed", "error", err, "roadmap_id", roadmapID)
		return nil, apierr.Internal(fmt.Errorf("list nodes: %w", err))
	}
	return nodes, nil
}

func (ns *nodeService) GetTree(ctx context.Context, roadmapID uuid.UUID) ([]*hierarchy.TreeNode, error) {
	nodes, err := ns.ListNodes(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	return hierarchy.BuildTree(nodes), nil
}

func (ns *nodeService) GetLevels(ctx context.Context, roadmapID uuid.UUID) ([][]*types.Node, error) {
	nodes, err := ns.ListNodes(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	return hierarchy.BuildLevels(nodes), nil
}

func (ns *nodeService) CreateNode(ctx context.Context, roadmapID uuid.UUID, input NodeInput) (*types.Node, error) {
	if _, err := loadOwnedRoadmap(ctx, nil, ns.roadmapRepo, roadmapID); err != nil {
		return nil, err
	}

	title := normalization.TrimInputString(input.Title)
	if title == "" {
		return nil, apierr.Validation("a title is required")
	}
	nodeType := input.Type
	if nodeType == "" {
		nodeType = types.NodeTypeOther
	}
	if !types.ValidNodeType(nodeType) {
		return nil, apierr.Validation("invalid node type %q", nodeType)
	}
	status := input.Status
	if status == "" {
		status = types.NodeStatusNotStarted
	}
	if !types.ValidNodeStatus(status) {
		return nil, apierr.Validation("invalid node status %q", status)
	}
	if input.TimeEstimate < 0 {
		return nil, apierr.Validation("time_estimate must not be negative")
	}
	if input.ParentID != nil {
		if err := ns.validateParent(ctx, nil, roadmapID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	node := &types.Node{
		ID:           uuid.New(),
		RoadmapID:    roadmapID,
		ParentID:     input.ParentID,
		Title:        title,
		Type:         nodeType,
		Topic:        normalization.TrimInputString(input.Topic),
		ResourceURL:  normalization.TrimInputString(input.ResourceURL),
		TimeEstimate: input.TimeEstimate,
		Status:       status,
		Content:      input.Content,
		Order:        input.Order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status == types.NodeStatusCompleted {
		node.CompletedAt = &now
	}

	if _, err := ns.nodeRepo.Create(ctx, nil, []*types.Node{node}); err != nil {
		ns.log.Error("CreateNode failed", "error", err, "roadmap_id", roadmapID)
		return nil, apierr.Internal(fmt.Errorf("create node: %w", err))
	}
	return node, nil
}

func (ns *nodeService) UpdateNode(ctx context.Context, id uuid.UUID, patch NodePatch) (*types.Node, error) {
	node, err := ns.loadOwnedNode(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.Title != nil {
		title := normalization.TrimInputString(*patch.Title)
		if title == "" {
			return nil, apierr.Validation("title must not be empty")
		}
		updates["title"] = title
	}
	if patch.Type != nil {
		if !types.ValidNodeType(*patch.Type) {
			return nil, apierr.Validation("invalid node type %q", *patch.Type)
		}
		updates["type"] = *patch.Type
	}
	if patch.Topic != nil {
		updates["topic"] = normalization.TrimInputString(*patch.Topic)
	}
	if patch.ResourceURL != nil {
		updates["resource_url"] = normalization.TrimInputString(*patch.ResourceURL)
	}
	if patch.TimeEstimate != nil {
		if *patch.TimeEstimate < 0 {
			return nil, apierr.Validation("time_estimate must not be negative")
		}
		updates["time_estimate"] = *patch.TimeEstimate
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Order != nil {
		updates["order"] = *patch.Order
	}
	if patch.Status != nil {
		if !types.ValidNodeStatus(*patch.Status) {
			return nil, apierr.Validation("invalid node status %q", *patch.Status)
		}
		updates["status"] = *patch.Status
		// completed_at is derived from status, never taken from the client.
		if *patch.Status == types.NodeStatusCompleted {
			updates["completed_at"] = time.Now()
		} else {
			updates["completed_at"] = nil
		}
	}
	if patch.ParentIDSet {
		if patch.ParentID != nil {
			if err := ns.validateParent(ctx, nil, node.RoadmapID, *patch.ParentID); err != nil {
				return nil, err
			}
			if err := ns.rejectCycle(ctx, nil, node.ID, *patch.ParentID); err != nil {
				return nil, err
			}
		}
		updates["parent_id"] = patch.ParentID
	}

	updated, err := ns.nodeRepo.Update(ctx, nil, id, updates)
	if err != nil {
		ns.log.Error("UpdateNode failed", "error", err, "node_id", id)
		return nil, apierr.Internal(fmt.Errorf("update node: %w", err))
	}
	return updated, nil
}

// DeleteNode removes a node and reparents its children to the deleted node's
// own parent, so a subtree is never silently lost.
func (ns *nodeService) DeleteNode(ctx context.Context, id uuid.UUID) error {
	node, err := ns.loadOwnedNode(ctx, nil, id)
	if err != nil {
		return err
	}

	if err := ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ns.nodeRepo.ReparentChildren(ctx, tx, node.ID, node.ParentID); err != nil {
			return fmt.Errorf("reparent children: %w", err)
		}
		if err := ns.nodeRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{node.ID}); err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		return nil
	}); err != nil {
		ns.log.Error("DeleteNode failed", "error", err, "node_id", id)
		return apierr.Internal(err)
	}
	return nil
}

// BatchReorder applies parent/order updates sequentially, failing fast on the
// first bad update. Updates applied before the failure stay applied; the
// returned slice reports exactly which nodes were changed.
func (ns *nodeService) BatchReorder(ctx context.Context, roadmapID uuid.UUID, updates []ReorderUpdate) ([]*types.Node, error) {
	roadmap, err := loadOwnedRoadmap(ctx, nil, ns.roadmapRepo, roadmapID)
	if err != nil {
		return nil, err
	}

	applied := []*types.Node{}
	for i, update := range updates {
		nodes, err := ns.nodeRepo.GetByIDs(ctx, nil, []uuid.UUID{update.ID})
		if err != nil {
			return applied, apierr.Internal(fmt.Errorf("reorder update %d: load node: %w", i, err))
		}
		if len(nodes) == 0 {
			return applied, apierr.NotFound("reorder update %d: node %s not found", i, update.ID)
		}
		node := nodes[0]
		if node.RoadmapID != roadmapID {
			return applied, apierr.Validation("reorder update %d: node %s belongs to a different roadmap", i, update.ID)
		}
		if update.ParentID != nil {
			if err := ns.validateParent(ctx, nil, roadmapID, *update.ParentID); err != nil {
				return applied, fmt.Errorf("reorder update %d: %w", i, err)
			}
			if err := ns.rejectCycle(ctx, nil, update.ID, *update.ParentID); err != nil {
				return applied, fmt.Errorf("reorder update %d: %w", i, err)
			}
		}
		updated, err := ns.nodeRepo.Update(ctx, nil, update.ID, map[string]interface{}{
			"parent_id":  update.ParentID,
			"order":      update.Order,
			"updated_at": time.Now(),
		})
		if err != nil {
			ns.log.Error("BatchReorder update failed", "error", err, "node_id", update.ID, "index", i)
			return applied, apierr.Internal(fmt.Errorf("reorder update %d: %w", i, err))
		}
		applied = append(applied, updated)
	}
	ns.recordReorderEvent(ctx, roadmap.UserID, roadmapID, len(applied))
	return applied, nil
}

// recordReorderEvent writes an audit row; failures are logged, never surfaced.
func (ns *nodeService) recordReorderEvent(ctx context.Context, userID, roadmapID uuid.UUID, count int) {
	payload, err := json.Marshal(map[string]interface{}{"count": count})
	if err != nil {
		return
	}
	event := &types.UserEvent{
		ID:        uuid.New(),
		UserID:    userID,
		RoadmapID: &roadmapID,
		Type:      types.UserEventNodesReordered,
		Data:      datatypes.JSON(payload),
		CreatedAt: time.Now(),
	}
	if _, err := ns.userEventRepo.Create(ctx, nil, []*types.UserEvent{event}); err != nil {
		ns.log.Warn("Failed to record reorder event", "error", err)
	}
}

func (ns *nodeService) loadOwnedNode(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Node, error) {
	nodes, err := ns.nodeRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load node: %w", err))
	}
	if len(nodes) == 0 {
		return nil, apierr.NotFound("node not found")
	}
	node := nodes[0]
	if _, err := loadOwnedRoadmap(ctx, tx, ns.roadmapRepo, node.RoadmapID); err != nil {
		return nil, err
	}
	return node, nil
}

// validateParent rejects parents that do not exist or live in another roadmap.
func (ns *nodeService) validateParent(ctx context.Context, tx *gorm.DB, roadmapID, parentID uuid.UUID) error {
	parents, err := ns.nodeRepo.GetByIDs(ctx, tx, []uuid.UUID{parentID})
	if err != nil {
		return apierr.Internal(fmt.Errorf("load parent node: %w", err))
	}
	if len(parents) == 0 {
		return apierr.Validation("parent node %s not found", parentID)
	}
	if parents[0].RoadmapID != roadmapID {
		return apierr.Validation("parent node %s belongs to a different roadmap", parentID)
	}
	return nil
}

// rejectCycle walks the ancestor chain of the proposed parent and refuses the
// move if the node being moved shows up, which would make it its own ancestor.
// The visited set bounds the walk even if stored data already contains a loop.
func (ns *nodeService) rejectCycle(ctx context.Context, tx *gorm.DB, nodeID, newParentID uuid.UUID) error {
	if nodeID == newParentID {
		return apierr.Validation("node cannot be its own parent")
	}
	visited := map[uuid.UUID]bool{}
	current := newParentID
	for {
		if visited[current] {
			return nil
		}
		visited[current] = true
		ancestors, err := ns.nodeRepo.GetByIDs(ctx, tx, []uuid.UUID{current})
		if err != nil {
			return apierr.Internal(fmt.Errorf("walk ancestor chain: %w", err))
		}
		if len(ancestors) == 0 || ancestors[0].ParentID == nil {
			return nil
		}
		current = *ancestors[0].ParentID
		if current == nodeID {
			return apierr.Validation("move would make node %s its own descendant's child", nodeID)
		}
	}
}
