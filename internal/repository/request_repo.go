package repository

import (
	"context"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository handles IssuanceRequest aggregates and their line items
type RequestRepository interface {
	Create(ctx context.Context, req *model.IssuanceRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IssuanceRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.IssuanceRequest, error)
	ListPendingAtLevel(ctx context.Context, level string, wingID *uuid.UUID, page, limit int) ([]model.IssuanceRequest, int64, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error)
	FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error)
	SaveItem(ctx context.Context, item *model.RequestItem) error
	UpdateStatus(ctx context.Context, requestID uuid.UUID, status string) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.IssuanceRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.IssuanceRequest, error) {
	var req model.IssuanceRequest
	if err := GetDB(ctx, r.db).Preload("Items").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.IssuanceRequest, error) {
	var req model.IssuanceRequest
	if err := GetDB(ctx, r.db).
		Preload("Requester").
		Preload("Wing").
		Preload("Items").
		Preload("Items.ItemMaster").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingAtLevel returns requests that still hold at least one PENDING
// item owned by the given level (and wing, for the supervisor level).
func (r *requestRepository) ListPendingAtLevel(ctx context.Context, level string, wingID *uuid.UUID, page, limit int) ([]model.IssuanceRequest, int64, error) {
	db := GetDB(ctx, r.db)

	sub := db.Model(&model.RequestItem{}).
		Select("request_id").
		Where("decision_type = ? AND current_level = ?", model.DecisionPending, level)

	query := db.Model(&model.IssuanceRequest{}).Where("id IN (?)", sub)
	if wingID != nil {
		query = query.Where("wing_id = ?", *wingID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []model.IssuanceRequest
	offset := (page - 1) * limit
	if err := query.
		Preload("Requester").
		Preload("Items").
		Order("created_at asc").
		Offset(offset).Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error) {
	var item model.RequestItem
	if err := GetDB(ctx, r.db).Preload("ItemMaster").First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForUpdate loads an item under a row lock so a decision write is
// serialized against concurrent actors on the same item. SQLite has no
// SELECT ... FOR UPDATE; its writes are serialized by the connection anyway.
func (r *requestRepository) FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*model.RequestItem, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item model.RequestItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *requestRepository) SaveItem(ctx context.Context, item *model.RequestItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *requestRepository) UpdateStatus(ctx context.Context, requestID uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.IssuanceRequest{}).
		Where("id = ?", requestID).
		Update("status", status).Error
}
