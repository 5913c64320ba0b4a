package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Availability is the resolver's snapshot for one item against one wing.
// It is a pure read: no stock is locked or reserved by checking.
type Availability struct {
	ItemMasterID    string `json:"item_master_id"`
	WingAvailable   int    `json:"wing_available"`
	AdminAvailable  int    `json:"admin_available"`
	CanFulfillWing  bool   `json:"can_fulfill_from_wing"`
	CanFulfillAdmin bool   `json:"can_fulfill_from_admin"`
	IsStockBacked   bool   `json:"is_stock_backed"`
	RequestedQty    int    `json:"requested_quantity"`
}

// ItemSearchResult is one catalog row annotated with pool availability
type ItemSearchResult struct {
	ItemMasterID      string `json:"item_master_id"`
	ItemCode          string `json:"item_code"`
	Nomenclature      string `json:"nomenclature"`
	Description       string `json:"description"`
	Unit              string `json:"unit"`
	UnitPrice         string `json:"unit_price"`
	AvailableQuantity int    `json:"available_quantity"`
	StockStatus       string `json:"stock_status"`
}

type InventoryLogResponse struct {
	ID              string `json:"id"`
	LogType         string `json:"log_type"`
	QuantityBefore  int    `json:"quantity_before"`
	QuantityAfter   int    `json:"quantity_after"`
	QuantityChanged int    `json:"quantity_changed"`
	ValueChanged    string `json:"value_changed"`
	ReferenceType   string `json:"reference_type"`
	Description     string `json:"description"`
	CreatedAt       string `json:"created_at"`
}

// StockService resolves availability against the two stock pools (wing-local
// and admin/central) and exposes the catalog reads used by the approval UI.
type StockService interface {
	CheckAvailability(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID, requestedQty int) (Availability, error)
	AnnotateItem(ctx context.Context, item *model.RequestItem, wingID *uuid.UUID) Availability
	SearchItems(ctx context.Context, search string, wingID *uuid.UUID, page, limit int) ([]ItemSearchResult, int64, error)
	ItemLog(ctx context.Context, itemMasterID uuid.UUID, limit int) ([]InventoryLogResponse, error)
}

type stockService struct {
	stocks repository.StockRepository
}

func NewStockService(stocks repository.StockRepository) StockService {
	return &stockService{stocks: stocks}
}

func (s *stockService) CheckAvailability(ctx context.Context, itemMasterID uuid.UUID, wingID *uuid.UUID, requestedQty int) (Availability, error) {
	avail := Availability{
		ItemMasterID:  itemMasterID.String(),
		IsStockBacked: true,
		RequestedQty:  requestedQty,
	}

	if wingID != nil {
		pool, err := s.stocks.FindPool(ctx, itemMasterID, wingID)
		switch {
		case err == nil:
			avail.WingAvailable = pool.AvailableQuantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return Availability{}, fmt.Errorf("failed to read wing stock: %w", err)
		}
	}

	adminPool, err := s.stocks.FindPool(ctx, itemMasterID, nil)
	switch {
	case err == nil:
		avail.AdminAvailable = adminPool.AvailableQuantity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Availability{}, fmt.Errorf("failed to read admin stock: %w", err)
	}

	avail.CanFulfillWing = avail.WingAvailable >= requestedQty
	avail.CanFulfillAdmin = avail.AdminAvailable >= requestedQty
	return avail, nil
}

// AnnotateItem reports the resolver's belief for a request item. Custom items
// always come back zero/zero and flagged non-stock.
func (s *stockService) AnnotateItem(ctx context.Context, item *model.RequestItem, wingID *uuid.UUID) Availability {
	if item.IsCustomItem || item.ItemMasterID == nil {
		return Availability{IsStockBacked: false, RequestedQty: item.RequestedQuantity}
	}
	avail, err := s.CheckAvailability(ctx, *item.ItemMasterID, wingID, item.RequestedQuantity)
	if err != nil {
		return Availability{ItemMasterID: item.ItemMasterID.String(), IsStockBacked: true, RequestedQty: item.RequestedQuantity}
	}
	return avail
}

func (s *stockService) SearchItems(ctx context.Context, search string, wingID *uuid.UUID, page, limit int) ([]ItemSearchResult, int64, error) {
	rows, total, err := s.stocks.SearchItems(ctx, search, wingID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search items: %w", err)
	}

	result := make([]ItemSearchResult, 0, len(rows))
	for _, row := range rows {
		status := model.StockStatusAvailable
		if row.AvailableQuantity == 0 {
			status = model.StockStatusOutOfStock
		} else if row.AvailableQuantity <= row.MinimumStockLevel {
			status = model.StockStatusLow
		}
		result = append(result, ItemSearchResult{
			ItemMasterID:      row.Item.ID.String(),
			ItemCode:          row.Item.ItemCode,
			Nomenclature:      row.Item.Nomenclature,
			Description:       row.Item.Description,
			Unit:              row.Item.Unit,
			UnitPrice:         row.Item.UnitPrice.StringFixed(4),
			AvailableQuantity: row.AvailableQuantity,
			StockStatus:       status,
		})
	}
	return result, total, nil
}

func (s *stockService) ItemLog(ctx context.Context, itemMasterID uuid.UUID, limit int) ([]InventoryLogResponse, error) {
	logs, err := s.stocks.ListLogByItem(ctx, itemMasterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory log: %w", err)
	}

	result := make([]InventoryLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, InventoryLogResponse{
			ID:              l.ID.String(),
			LogType:         l.LogType,
			QuantityBefore:  l.QuantityBefore,
			QuantityAfter:   l.QuantityAfter,
			QuantityChanged: l.QuantityChanged,
			ValueChanged:    l.ValueChanged.StringFixed(4),
			ReferenceType:   l.ReferenceType,
			Description:     l.Description,
			CreatedAt:       l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return result, nil
}
