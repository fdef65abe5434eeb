package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/learnmap-backend/internal/apierr"
	"github.com/yungbote/learnmap-backend/internal/logger"
	"github.com/yungbote/learnmap-backend/internal/repos"
	"github.com/yungbote/learnmap-backend/internal/types"
)

// ImportRecord is one node-creation row from a CSV import. ParentTitle refers
// to another row's title; it is resolved to a node id in the second pass,
// after every row has been created and has an id.
type ImportRecord struct {
	Title        string `json:"title"`
	Type         string `json:"type"`
	Topic        string `json:"topic"`
	ResourceURL  string `json:"resource_url"`
	TimeEstimate int    `json:"time_estimate"`
	Status       string `json:"status"`
	Content      string `json:"content"`
	ParentTitle  string `json:"parent_title"`
}

type ImportResult struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// ParseCSVRows parses the roadmap CSV format: a header line followed by one
// row per node. Header matching is case-insensitive and accepts the synonyms
// the template has always advertised. Values are split on commas positionally;
// embedded commas are not supported (no quoting), a known format limitation.
func ParseCSVRows(text string) []ImportRecord {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return []ImportRecord{}
	}

	headers := strings.Split(lines[0], ",")
	for i := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(headers[i]))
	}

	records := make([]ImportRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		var rec ImportRecord
		for i, header := range headers {
			value := ""
			if i < len(values) {
				value = strings.TrimSpace(values[i])
			}
			switch header {
			case "title":
				rec.Title = value
			case "type":
				rec.Type = value
			case "timeestimate", "time_estimate":
				minutes, _ := strconv.Atoi(value)
				if minutes < 0 {
					minutes = 0
				}
				rec.TimeEstimate = minutes
			case "status":
				rec.Status = value
			case "parenttitle", "parent_title":
				rec.ParentTitle = value
			case "topic":
				rec.Topic = value
			case "resourceurl", "resource_url", "url":
				rec.ResourceURL = value
			case "content", "notes":
				rec.Content = value
			}
		}
		records = append(records, rec)
	}
	return records
}

type ImportService interface {
	ImportNodes(ctx context.Context, roadmapID uuid.UUID, records []ImportRecord) (*ImportResult, error)
}

type importService struct {
	db            *gorm.DB
	log           *logger.Logger
	roadmapRepo   repos.RoadmapRepo
	nodeRepo      repos.NodeRepo
	userEventRepo repos.UserEventRepo
}

func NewImportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	nodeRepo repos.NodeRepo,
	userEventRepo repos.UserEventRepo,
) ImportService {
	serviceLog := baseLog.With("service", "ImportService")
	return &importService{
		db:            db,
		log:           serviceLog,
		roadmapRepo:   roadmapRepo,
		nodeRepo:      nodeRepo,
		userEventRepo: userEventRepo,
	}
}

// ImportNodes creates the records in two passes. Pass 1 creates every row as
// a node; pass 2 links children to parents by title within this batch only.
// Creation is sequential and not transactional: a mid-batch failure leaves
// the earlier nodes persisted and skips linking entirely.
func (is *importService) ImportNodes(ctx context.Context, roadmapID uuid.UUID, records []ImportRecord) (*ImportResult, error) {
	roadmap, err := loadOwnedRoadmap(ctx, nil, is.roadmapRepo, roadmapID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apierr.Validation("no records to import")
	}

	type createdRecord struct {
		node        *types.Node
		parentTitle string
	}

	// Pass 1: create every row, remembering its parentTitle for pass 2.
	created := make([]createdRecord, 0, len(records))
	for i, rec := range records {
		nodeType := rec.Type
		if nodeType == "" {
			nodeType = types.NodeTypeArticle
		}
		if !types.ValidNodeType(nodeType) {
			return nil, apierr.Validation("row %d: invalid node type %q", i, rec.Type)
		}
		status := rec.Status
		if status == "" {
			status = types.NodeStatusNotStarted
		}
		if !types.ValidNodeStatus(status) {
			return nil, apierr.Validation("row %d: invalid node status %q", i, rec.Status)
		}
		minutes := rec.TimeEstimate
		if minutes < 0 {
			minutes = 0
		}

		now := time.Now()
		node := &types.Node{
			ID:           uuid.New(),
			RoadmapID:    roadmapID,
			Title:        rec.Title,
			Type:         nodeType,
			Topic:        rec.Topic,
			ResourceURL:  rec.ResourceURL,
			TimeEstimate: minutes,
			Status:       status,
			Content:      rec.Content,
			Order:        i,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if status == types.NodeStatusCompleted {
			node.CompletedAt = &now
		}
		if _, err := is.nodeRepo.Create(ctx, nil, []*types.Node{node}); err != nil {
			is.log.Error("Import create failed", "error", err, "roadmap_id", roadmapID, "row", i)
			return nil, apierr.Internal(fmt.Errorf("row %d: create node: %w", i, err))
		}
		created = append(created, createdRecord{node: node, parentTitle: rec.ParentTitle})
	}

	// Pass 2: resolve parentTitle references. First title match in creation
	// order wins; rows with no match stay roots.
	for _, c := range created {
		if c.parentTitle == "" {
			continue
		}
		for _, candidate := range created {
			if candidate.node.ID == c.node.ID || candidate.node.Title != c.parentTitle {
				continue
			}
			parentID := candidate.node.ID
			if _, err := is.nodeRepo.Update(ctx, nil, c.node.ID, map[string]interface{}{
				"parent_id":  parentID,
				"updated_at": time.Now(),
			}); err != nil {
				is.log.Error("Import link failed", "error", err, "node_id", c.node.ID, "parent_id", parentID)
				return nil, apierr.Internal(fmt.Errorf("link node %s to parent %s: %w", c.node.ID, parentID, err))
			}
			c.node.ParentID = &parentID
			break
		}
	}

	is.recordImportEvent(ctx, roadmap.UserID, roadmapID, len(created))
	return &ImportResult{
		Count:   len(created),
		Message: fmt.Sprintf("Created %d nodes", len(created)),
	}, nil
}

func (is *importService) recordImportEvent(ctx context.Context, userID, roadmapID uuid.UUID, count int) {
	payload, err := json.Marshal(map[string]interface{}{"count": count})
	if err != nil {
		return
	}
	event := &types.UserEvent{
		ID:        uuid.New(),
		UserID:    userID,
		RoadmapID: &roadmapID,
		Type:      types.UserEventNodesImported,
		Data:      datatypes.JSON(payload),
		CreatedAt: time.Now(),
	}
	if _, err := is.userEventRepo.Create(ctx, nil, []*types.UserEvent{event}); err != nil {
		is.log.Warn("Failed to record import event", "error", err)
	}
}
