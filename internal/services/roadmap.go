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
	"github.com/yungbote/learnmap-backend/internal/requestdata"
	"github.com/yungbote/learnmap-backend/internal/types"
)

type CreateRoadmapInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	DailyFocusTime *int   `json:"daily_focus_time"`
}

type RoadmapPatch struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	DailyFocusTime *int    `json:"daily_focus_time"`
}

type RoadmapProgress struct {
	hierarchy.Progress
	ProjectedDate time.Time `json:"projected_date"`
}

type RoadmapService interface {
	ListRoadmaps(ctx context.Context, tx *gorm.DB) ([]*types.Roadmap, error)
	GetRoadmap(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Roadmap, error)
	CreateRoadmap(ctx context.Context, input CreateRoadmapInput) (*types.Roadmap, error)
	UpdateRoadmap(ctx context.Context, id uuid.UUID, patch RoadmapPatch) (*types.Roadmap, error)
	DeleteRoadmap(ctx context.Context, id uuid.UUID) error
	GetProgress(ctx context.Context, id uuid.UUID) (*RoadmapProgress, error)
}

type roadmapService struct {
	db            *gorm.DB
	log           *logger.Logger
	roadmapRepo   repos.RoadmapRepo
	nodeRepo      repos.NodeRepo
	userEventRepo repos.UserEventRepo
}

func NewRoadmapService(
	db *gorm.DB,
	baseLog *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	nodeRepo repos.NodeRepo,
	userEventRepo repos.UserEventRepo,
) RoadmapService {
	serviceLog := baseLog.With("service", "RoadmapService")
	return &roadmapService{
		db:            db,
		log:           serviceLog,
		roadmapRepo:   roadmapRepo,
		nodeRepo:      nodeRepo,
		userEventRepo: userEventRepo,
	}
}

// requireUser pulls the authenticated user out of the request context.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Forbidden("no authenticated user in context")
	}
	return rd.UserID, nil
}

// loadOwnedRoadmap fetches a roadmap and enforces that it belongs to the
// acting user. Every roadmap- and node-scoped operation goes through here.
func loadOwnedRoadmap(ctx context.Context, tx *gorm.DB, roadmapRepo repos.RoadmapRepo, id uuid.UUID) (*types.Roadmap, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	roadmaps, err := roadmapRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("load roadmap: %w", err))
	}
	if len(roadmaps) == 0 {
		return nil, apierr.NotFound("roadmap not found")
	}
	if roadmaps[0].UserID != userID {
		return nil, apierr.Forbidden("roadmap does not belong to user")
	}
	return roadmaps[0], nil
}

func (rs *roadmapService) ListRoadmaps(ctx context.Context, tx *gorm.DB) ([]*types.Roadmap, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	roadmaps, err := rs.roadmapRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		rs.log.Error("ListRoadmaps failed", "error", err, "user_id", userID)
		return nil, apierr.Internal(fmt.Errorf("list roadmaps: %w", err))
	}
	return roadmaps, nil
}

func (rs *roadmapService) GetRoadmap(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Roadmap, error) {
	return loadOwnedRoadmap(ctx, tx, rs.roadmapRepo, id)
}

func (rs *roadmapService) CreateRoadmap(ctx context.Context, input CreateRoadmapInput) (*types.Roadmap, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	title := normalization.TrimInputString(input.Title)
	if title == "" {
		return nil, apierr.Validation("a title is required")
	}
	dailyFocusTime := types.DefaultDailyFocusTime
	if input.DailyFocusTime != nil {
		if *input.DailyFocusTime < 0 {
			return nil, apierr.Validation("daily_focus_time must not be negative")
		}
		dailyFocusTime = *input.DailyFocusTime
	}

	now := time.Now()
	roadmap := &types.Roadmap{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Description:    normalization.TrimInputString(input.Description),
		DailyFocusTime: dailyFocusTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := rs.roadmapRepo.Create(ctx, tx, []*types.Roadmap{roadmap}); err != nil {
			return fmt.Errorf("create roadmap: %w", err)
		}
		// Every new roadmap starts with a single root node.
		intro := &types.Node{
			ID:        uuid.New(),
			RoadmapID: roadmap.ID,
			Title:     "Intro",
			Type:      types.NodeTypeOther,
			Status:    types.NodeStatusNotStarted,
			Order:     0,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := rs.nodeRepo.Create(ctx, tx, []*types.Node{intro}); err != nil {
			return fmt.Errorf("create intro node: %w", err)
		}
		rs.recordEvent(ctx, tx, userID, &roadmap.ID, types.UserEventRoadmapCreated, map[string]interface{}{
			"title": roadmap.Title,
		})
		return nil
	}); err != nil {
		rs.log.Error("CreateRoadmap failed", "error", err, "user_id", userID)
		return nil, apierr.Internal(err)
	}
	return roadmap, nil
}

func (rs *roadmapService) UpdateRoadmap(ctx context.Context, id uuid.UUID, patch RoadmapPatch) (*types.Roadmap, error) {
	if _, err := loadOwnedRoadmap(ctx, nil, rs.roadmapRepo, id); err != nil {
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
	if patch.Description != nil {
		updates["description"] = normalization.TrimInputString(*patch.Description)
	}
	if patch.DailyFocusTime != nil {
		if *patch.DailyFocusTime < 0 {
			return nil, apierr.Validation("daily_focus_time must not be negative")
		}
		updates["daily_focus_time"] = *patch.DailyFocusTime
	}

	updated, err := rs.roadmapRepo.Update(ctx, nil, id, updates)
	if err != nil {
		rs.log.Error("UpdateRoadmap failed", "error", err, "roadmap_id", id)
		return nil, apierr.Internal(fmt.Errorf("update roadmap: %w", err))
	}
	return updated, nil
}

func (rs *roadmapService) DeleteRoadmap(ctx context.Context, id uuid.UUID) error {
	roadmap, err := loadOwnedRoadmap(ctx, nil, rs.roadmapRepo, id)
	if err != nil {
		return err
	}

	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Cascade: a roadmap owns its nodes.
		if err := rs.nodeRepo.FullDeleteByRoadmapIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete roadmap nodes: %w", err)
		}
		if err := rs.roadmapRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete roadmap: %w", err)
		}
		rs.recordEvent(ctx, tx, roadmap.UserID, &id, types.UserEventRoadmapDeleted, map[string]interface{}{
			"title": roadmap.Title,
		})
		return nil
	}); err != nil {
		rs.log.Error("DeleteRoadmap failed", "error", err, "roadmap_id", id)
		return apierr.Internal(err)
	}
	return nil
}

func (rs *roadmapService) GetProgress(ctx context.Context, id uuid.UUID) (*RoadmapProgress, error) {
	roadmap, err := loadOwnedRoadmap(ctx, nil, rs.roadmapRepo, id)
	if err != nil {
		return nil, err
	}
	nodes, err := rs.nodeRepo.GetByRoadmapID(ctx, nil, id)
	if err != nil {
		rs.log.Error("GetProgress failed", "error", err, "roadmap_id", id)
		return nil, apierr.Internal(fmt.Errorf("load roadmap nodes: %w", err))
	}
	progress := hierarchy.ComputeProgress(nodes, roadmap.DailyFocusTime)
	return &RoadmapProgress{
		Progress:      progress,
		ProjectedDate: progress.ProjectedDate(time.Now()),
	}, nil
}

// recordEvent writes an audit row; failures are logged, never surfaced.
func (rs *roadmapService) recordEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, roadmapID *uuid.UUID, eventType string, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		rs.log.Warn("Failed to marshal event payload", "event_type", eventType, "error", err)
		return
	}
	event := &types.UserEvent{
		ID:        uuid.New(),
		UserID:    userID,
		RoadmapID: roadmapID,
		Type:      eventType,
		Data:      datatypes.JSON(payload),
		CreatedAt: time.Now(),
	}
	if _, err := rs.userEventRepo.Create(ctx, tx, []*types.UserEvent{event}); err != nil {
		rs.log.Warn("Failed to record user event", "event_type", eventType, "error", err)
	}
}
