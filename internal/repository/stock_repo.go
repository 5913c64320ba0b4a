package repository

import (
	"context"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemWithAvailability is an item master joined with one stock pool snapshot
type ItemWithAvailability struct {
	Item              model.ItemMaster
	AvailableQuantity int
	MinimumStockLevel int
}

// StockRepository reads and adjusts the hierarchical stock pools. A pool row
// with a wing id is wing-local stock; a NULL wing id is the admin pool.
type StockRepository interface {
	FindItemMaster(ctx context.Context, id uuid.UUID) (*model.ItemMaster, error)
	FindPool(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID) (*model.InventoryStock, error)
	FindPoolForUpdate(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID) (*model.InventoryStock, error)
	SavePool(ctx context.Context, pool *model.InventoryStock) error
	SearchItems(ctx context.Context, search string, wingID *uuid.UUID, page, limit int) ([]ItemWithAvailability, int64, error)
	CreateLog(ctx context.Context, entry *model.InventoryLog) error
	ListLogByItem(ctx context.Context, itemMasterID uuid.UUID, limit int) ([]model.InventoryLog, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) FindItemMaster(ctx context.Context, id uuid.UUID) (*model.ItemMaster, error) {
	var item model.ItemMaster
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func poolScope(db *gorm.DB, itemMasterID uuid.UUID, wingID *uuid.UUID) *gorm.DB {
	query := db.Where("item_master_id = ?", itemMasterID)
	if wingID == nil {
		return query.Where("wing_id IS NULL")
	}
	return query.Where("wing_id = ?", *wingID)
}

func (r *stockRepository) FindPool(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID) (*model.InventoryStock, error) {
	var pool model.InventoryStock
	if err := poolScope(GetDB(ctx, r.db), itemMasterID, wingID).First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *stockRepository) FindPoolForUpdate(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID) (*model.InventoryStock, error) {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var pool model.InventoryStock
	if err := poolScope(db, itemMasterID, wingID).First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *stockRepository) SavePool(ctx context.Context, pool *model.InventoryStock) error {
	return GetDB(ctx, r.db).Save(pool).Error
}

// SearchItems lists active item masters with their availability in the given
// pool (wing pool when wingID is set, admin pool otherwise).
func (r *stockRepository) SearchItems(ctx context.Context, search string, wingID *uuid.UUID, page, limit int) ([]ItemWithAvailability, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.ItemMaster{}).Where("status = ?", model.ItemStatusActive)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("nomenclature LIKE ? OR item_code LIKE ? OR description LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.ItemMaster
	offset := (page - 1) * limit
	if err := query.Order("nomenclature asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	result := make([]ItemWithAvailability, 0, len(items))
	for _, item := range items {
		entry := ItemWithAvailability{Item: item}
		var pool model.InventoryStock
		if err := poolScope(db, item.ID, wingID).First(&pool).Error; err == nil {
			entry.AvailableQuantity = pool.AvailableQuantity
			entry.MinimumStockLevel = pool.MinimumStockLevel
		}
		result = append(result, entry)
	}

	return result, total, nil
}

func (r *stockRepository) CreateLog(ctx context.Context, entry *model.InventoryLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *stockRepository) ListLogByItem(ctx context.Context, itemMasterID uuid.UUID, limit int) ([]model.InventoryLog, error) {
	var logs []model.InventoryLog
	if err := GetDB(ctx, r.db).
		Where("item_master_id = ?", itemMasterID).
		Order("created_at desc").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
