package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/types"
)

type NodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Node) ([]*types.Node, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Node, error)
	// GetByRoadmapID returns the roadmap's nodes ordered by (order, created_at),
	// the order the hierarchy builders and the list endpoint expect.
	GetByRoadmapID(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) ([]*types.Node, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (*types.Node, error)
	ReparentChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, newParentID *uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByRoadmapIDs(ctx context.Context, tx *gorm.DB, roadmapIDs []uuid.UUID) error
}

type nodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNodeRepo(db *gorm.DB, baseLog *logger.Logger) NodeRepo {
	repoLog := baseLog.With("repo", "NodeRepo")
	return &nodeRepo{db: db, log: repoLog}
}

func (r *nodeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Node) ([]*types.Node, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Node{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *nodeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Node, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Node
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *nodeRepo) GetByRoadmapID(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) ([]*types.Node, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Node
	if roadmapID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("roadmap_id = ?", roadmapID).
		Order(`"order" ASC, created_at ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *nodeRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) (*types.Node, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Node{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var result types.Node
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *nodeRepo) ReparentChildren(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, newParentID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if parentID == uuid.Nil {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Model(&types.Node{}).
		Where("parent_id = ?", parentID).
		Update("parent_id", newParentID).Error; err != nil {
		return err
	}
	return nil
}

func (r *nodeRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Node{}).Error; err != nil {
		return err
	}
	return nil
}

func (r *nodeRepo) FullDeleteByRoadmapIDs(ctx context.Context, tx *gorm.DB, roadmapIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(roadmapIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("roadmap_id IN ?", roadmapIDs).
		Delete(&types.Node{}).Error; err != nil {
		return err
	}
	return nil
}
