package service

import (
	"context"
	"fmt"
	"time"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type IssueStockDTO struct {
	IssuedBy string `json:"issued_by"` // Defaults to the authenticated caller
	Notes    string `json:"notes"`
}

type AllocationResponse struct {
	AllocationID   string `json:"allocation_id"`
	RequestItemID  string `json:"request_item_id"`
	ItemMasterID   string `json:"item_master_id"`
	IssuedQuantity int    `json:"issued_quantity"`
	UnitPrice      string `json:"unit_price"`
	LineValue      string `json:"line_value"`
}

type IssuanceResponse struct {
	TransactionID string               `json:"transaction_id"`
	RequestID     string               `json:"request_id"`
	TotalQuantity int                  `json:"total_quantity"`
	TotalValue    string               `json:"total_value"`
	Allocations   []AllocationResponse `json:"allocations"`
}

// IssuanceService hands out approved stock. This is the only place physical
// pool quantities are decremented: approval never touches stock, issuance
// deducts exactly the approved quantities and journals every change to the
// inventory log within one transaction.
type IssuanceService interface {
	IssueStock(ctx context.Context, requestID string, dto IssueStockDTO) (IssuanceResponse, error)
	ListTransactions(ctx context.Context, requestID string) ([]IssuanceResponse, error)
}

type issuanceService struct {
	db       *gorm.DB
	txm      repository.TransactionManager
	requests repository.RequestRepository
	stocks   repository.StockRepository
	users    repository.UserRepository
	hub      Broadcaster
}

func NewIssuanceService(db *gorm.DB, txm repository.TransactionManager, requests repository.RequestRepository, stocks repository.StockRepository, users repository.UserRepository, hub Broadcaster) IssuanceService {
	return &issuanceService{db: db, txm: txm, requests: requests, stocks: stocks, users: users, hub: hub}
}

func (s *issuanceService) IssueStock(ctx context.Context, requestID string, dto IssueStockDTO) (IssuanceResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return IssuanceResponse{}, &ValidationError{Field: "request_id", Reason: "invalid identifier"}
	}

	keeper, err := s.users.GetByID(ctx, dto.IssuedBy)
	if err != nil {
		return IssuanceResponse{}, &ValidationError{Field: "issued_by", Reason: "unknown user"}
	}
	if keeper.Role != model.RoleStoreKeeper && keeper.Role != model.RoleAdmin {
		return IssuanceResponse{}, &PermissionScopeError{ActorRole: keeper.Role, Level: "issuance"}
	}

	var issuance *model.IssuanceTransaction
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		request, findErr := s.requests.FindByID(txCtx, reqID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		issuance = &model.IssuanceTransaction{
			RequestID:  reqID,
			IssuedByID: keeper.ID,
			Status:     model.TransactionIssued,
			TotalValue: decimal.Zero,
			Notes:      dto.Notes,
		}

		for i := range request.Items {
			candidate := &request.Items[i]
			if candidate.DecisionType != model.DecisionApproveFromStock {
				continue
			}
			if candidate.IssuedQuantity > 0 {
				continue // already handed out
			}

			// Re-read under a row lock: the unlocked request load above may
			// be stale, and a concurrent issuance that already claimed this
			// item must be seen before we deduct for it a second time.
			item, lockErr := s.requests.FindItemForUpdate(txCtx, candidate.ID)
			if lockErr != nil {
				return fmt.Errorf("item not found: %w", lockErr)
			}
			if item.DecisionType != model.DecisionApproveFromStock || item.IssuedQuantity > 0 {
				continue
			}
			if item.ApprovedQuantity == nil || item.ItemMasterID == nil {
				continue
			}

			allocation, issueErr := s.issueItem(txCtx, request, item, issuance)
			if issueErr != nil {
				return issueErr
			}

			issuance.TotalQuantity += allocation.IssuedQuantity
			issuance.TotalValue = issuance.TotalValue.Add(allocation.LineValue)
			issuance.Allocations = append(issuance.Allocations, *allocation)
		}

		if len(issuance.Allocations) == 0 {
			return &InvalidStateError{Expected: "at least one unissued APPROVE_FROM_STOCK item", Actual: request.Status}
		}

		if createErr := repository.GetDB(txCtx, s.db).Create(issuance).Error; createErr != nil {
			return fmt.Errorf("failed to create issuance transaction: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return IssuanceResponse{}, err
	}

	broadcastEvent(s.hub, "stock_issued", map[string]interface{}{
		"request_id":     requestID,
		"transaction_id": issuance.ID.String(),
		"total_quantity": issuance.TotalQuantity,
	})

	return toIssuanceResponse(issuance), nil
}

// issueItem deducts one approved line from the pool that approved it: the
// wing pool when the supervisor approved, the admin pool when the item had
// been forwarded to admin.
func (s *issuanceService) issueItem(ctx context.Context, request *model.IssuanceRequest, item *model.RequestItem, issuance *model.IssuanceTransaction) (*model.StockAllocation, error) {
	qty := *item.ApprovedQuantity

	var poolWing *uuid.UUID
	if item.CurrentLevel == model.LevelSupervisor {
		poolWing = request.WingID
	}

	pool, err := s.stocks.FindPoolForUpdate(ctx, *item.ItemMasterID, poolWing)
	if err != nil {
		return nil, fmt.Errorf("stock pool not found for item %s: %w", item.Nomenclature, err)
	}
	if pool.AvailableQuantity < qty {
		poolName := "wing"
		if poolWing == nil {
			poolName = "admin"
		}
		return nil, &InsufficientStockError{Requested: qty, Available: pool.AvailableQuantity, Pool: poolName}
	}

	before := pool.AvailableQuantity
	pool.AvailableQuantity = before - qty
	if err := s.stocks.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to update stock pool: %w", err)
	}

	master, err := s.stocks.FindItemMaster(ctx, *item.ItemMasterID)
	if err != nil {
		return nil, fmt.Errorf("item master not found: %w", err)
	}
	lineValue := master.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))

	logEntry := &model.InventoryLog{
		ItemMasterID:    *item.ItemMasterID,
		WingID:          poolWing,
		LogType:         model.LogTypeDeduction,
		QuantityBefore:  before,
		QuantityAfter:   pool.AvailableQuantity,
		QuantityChanged: -qty,
		ValueChanged:    lineValue.Neg(),
		UserID:          &issuance.IssuedByID,
		ReferenceType:   "REQUEST",
		ReferenceID:     &request.ID,
		Description:     fmt.Sprintf("Issued %d x %s for approved request", qty, item.Nomenclature),
		CreatedAt:       time.Now(),
	}
	if err := s.stocks.CreateLog(ctx, logEntry); err != nil {
		return nil, fmt.Errorf("failed to journal stock deduction: %w", err)
	}

	item.IssuedQuantity = qty
	if err := s.requests.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to mark item issued: %w", err)
	}

	return &model.StockAllocation{
		RequestItemID:  item.ID,
		ItemMasterID:   *item.ItemMasterID,
		WingID:         poolWing,
		IssuedQuantity: qty,
		UnitPrice:      master.UnitPrice,
		LineValue:      lineValue,
	}, nil
}

func (s *issuanceService) ListTransactions(ctx context.Context, requestID string) ([]IssuanceResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, &ValidationError{Field: "request_id", Reason: "invalid identifier"}
	}

	var transactions []model.IssuanceTransaction
	if err := repository.GetDB(ctx, s.db).
		Preload("Allocations").
		Where("request_id = ?", reqID).
		Order("created_at desc").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list issuance transactions: %w", err)
	}

	result := make([]IssuanceResponse, 0, len(transactions))
	for i := range transactions {
		result = append(result, toIssuanceResponse(&transactions[i]))
	}
	return result, nil
}

func toIssuanceResponse(tx *model.IssuanceTransaction) IssuanceResponse {
	resp := IssuanceResponse{
		TransactionID: tx.ID.String(),
		RequestID:     tx.RequestID.String(),
		TotalQuantity: tx.TotalQuantity,
		TotalValue:    tx.TotalValue.StringFixed(4),
	}
	for _, alloc := range tx.Allocations {
		resp.Allocations = append(resp.Allocations, AllocationResponse{
			AllocationID:   alloc.ID.String(),
			RequestItemID:  alloc.RequestItemID.String(),
			ItemMasterID:   alloc.ItemMasterID.String(),
			IssuedQuantity: alloc.IssuedQuantity,
			UnitPrice:      alloc.UnitPrice.StringFixed(4),
			LineValue:      alloc.LineValue.StringFixed(4),
		})
	}
	return resp
}
