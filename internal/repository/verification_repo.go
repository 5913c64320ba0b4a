package repository

import (
	"context"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerificationRepository stores store-keeper verification tasks
type VerificationRepository interface {
	Create(ctx context.Context, task *model.VerificationTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VerificationTask, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.VerificationTask, error)
	Save(ctx context.Context, task *model.VerificationTask) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.VerificationTask, error)
	ListOpenForStoreKeeper(ctx context.Context, storeKeeperID uuid.UUID) ([]model.VerificationTask, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Create(ctx context.Context, task *model.VerificationTask) error {
	return GetDB(ctx, r.db).Create(task).Error
}

func (r *verificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VerificationTask, error) {
	var task model.VerificationTask
	if err := GetDB(ctx, r.db).Preload("RequestItem").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *verificationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.VerificationTask, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var task model.VerificationTask
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *verificationRepository) Save(ctx context.Context, task *model.VerificationTask) error {
	return GetDB(ctx, r.db).Save(task).Error
}

func (r *verificationRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.VerificationTask, error) {
	var tasks []model.VerificationTask
	if err := GetDB(ctx, r.db).
		Where("request_item_id = ?", itemID).
		Order("created_at asc").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *verificationRepository) ListOpenForStoreKeeper(ctx context.Context, storeKeeperID uuid.UUID) ([]model.VerificationTask, error) {
	var tasks []model.VerificationTask
	if err := GetDB(ctx, r.db).
		Preload("RequestItem").
		Where("forwarded_to_id = ? AND status = ?", storeKeeperID, model.VerificationForwarded).
		Order("created_at asc").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
