package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

// ItemActionDTO addresses one line item in a batch decision. ObservedVersion
// is the optimistic-concurrency token from getRequestDetails; when set, the
// write is accepted only if the item has not moved since that read.
type ItemActionDTO struct {
	ItemID           string `json:"item_id" binding:"required"`
	ObservedVersion  *int   `json:"observed_version"`
	Decision         string `json:"decision"`          // Approve only: APPROVE_FROM_STOCK (default) or APPROVE_FOR_PROCUREMENT
	ApprovedQuantity *int   `json:"approved_quantity"` // Approve only; defaults to the requested quantity
}

type BatchActionDTO struct {
	ActorID    string          `json:"actor_id"` // Defaults to the authenticated caller
	Comments   string          `json:"comments"`
	Reason     string          `json:"reason"`      // Forward only; mandatory
	TargetRole string          `json:"target_role"` // Forward only: supervisor or admin
	Items      []ItemActionDTO `json:"items" binding:"required"`
}

// ItemActionResult reports one item's outcome. A batch never fails as a
// whole: each item is decided independently and reported here.
type ItemActionResult struct {
	ItemID       string `json:"item_id"`
	Success      bool   `json:"success"`
	DecisionType string `json:"decision_type,omitempty"`
	Version      int    `json:"version,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
}

type PendingRequestSummary struct {
	RequestID     string `json:"request_id"`
	RequesterName string `json:"requester_name"`
	Purpose       string `json:"purpose"`
	UrgencyLevel  string `json:"urgency_level"`
	SubmittedAt   string `json:"submitted_at"`
	ItemCount     int    `json:"item_count"`
	PendingItems  int    `json:"pending_items"`
}

type RequestItemDetail struct {
	ItemID            string       `json:"item_id"`
	ItemMasterID      *string      `json:"item_master_id"`
	Nomenclature      string       `json:"nomenclature"`
	IsCustomItem      bool         `json:"is_custom_item"`
	RequestedQuantity int          `json:"requested_quantity"`
	ApprovedQuantity  *int         `json:"approved_quantity"`
	IssuedQuantity    int          `json:"issued_quantity"`
	DecisionType      string       `json:"decision_type"`
	CurrentLevel      string       `json:"current_level"`
	Version           int          `json:"version"`
	Availability      Availability `json:"availability"`
}

type RequestDetails struct {
	RequestID          string              `json:"request_id"`
	RequestType        string              `json:"request_type"`
	RequesterID        string              `json:"requester_id"`
	RequesterName      string              `json:"requester_name"`
	WingID             *string             `json:"wing_id"`
	Purpose            string              `json:"purpose"`
	UrgencyLevel       string              `json:"urgency_level"`
	IsReturnable       bool                `json:"is_returnable"`
	ExpectedReturnDate *string             `json:"expected_return_date"`
	Status             string              `json:"status"`
	SubmittedAt        string              `json:"submitted_at"`
	Items              []RequestItemDetail `json:"items"`
	History            []model.AuditEntry  `json:"history"`
}

type ItemTracking struct {
	ItemID       string             `json:"item_id"`
	DecisionType string             `json:"decision_type"`
	CurrentLevel string             `json:"current_level"`
	Version      int                `json:"version"`
	History      []model.AuditEntry `json:"history"`
}

// decisionKind selects which transition a batch call applies
type decisionKind int

const (
	kindApprove decisionKind = iota
	kindForward
	kindReject
	kindReturn
)

// ApprovalService is the workflow state machine. Every decision write runs
// under per-item optimistic concurrency, appends exactly one audit entry and
// re-derives the projected item/request status from the trail fold inside
// the same transaction — no status is ever written without its entry.
type ApprovalService interface {
	Approve(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error)
	Forward(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error)
	Reject(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error)
	Return(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error)
	ListPending(ctx context.Context, role, scopeID string, page, limit int) ([]PendingRequestSummary, int64, error)
	GetRequestDetails(ctx context.Context, requestID string) (RequestDetails, error)
	GetItemTracking(ctx context.Context, itemID string) (ItemTracking, error)
}

type approvalService struct {
	txm      repository.TransactionManager
	requests repository.RequestRepository
	audits   repository.AuditRepository
	users    repository.UserRepository
	stocks   StockService
	hub      Broadcaster
}

func NewApprovalService(txm repository.TransactionManager, requests repository.RequestRepository, audits repository.AuditRepository, users repository.UserRepository, stocks StockService, hub Broadcaster) ApprovalService {
	return &approvalService{txm: txm, requests: requests, audits: audits, users: users, stocks: stocks, hub: hub}
}

// --- Batch operations ---

func (s *approvalService) Approve(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error) {
	return s.runBatch(ctx, requestID, dto, kindApprove)
}

func (s *approvalService) Forward(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error) {
	if dto.Reason == "" {
		return nil, &ValidationError{Field: "reason", Reason: "a forwarding reason is mandatory"}
	}
	switch dto.TargetRole {
	case model.RoleSupervisor, model.RoleAdmin:
	default:
		return nil, &ValidationError{Field: "target_role", Reason: "must be supervisor or admin"}
	}
	return s.runBatch(ctx, requestID, dto, kindForward)
}

func (s *approvalService) Reject(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error) {
	if dto.Comments == "" {
		return nil, &ValidationError{Field: "comments", Reason: "a rejection comment is mandatory"}
	}
	return s.runBatch(ctx, requestID, dto, kindReject)
}

func (s *approvalService) Return(ctx context.Context, requestID string, dto BatchActionDTO) ([]ItemActionResult, error) {
	if dto.Comments == "" {
		return nil, &ValidationError{Field: "comments", Reason: "a return comment is mandatory"}
	}
	return s.runBatch(ctx, requestID, dto, kindReturn)
}

func (s *approvalService) runBatch(ctx context.Context, requestID string, dto BatchActionDTO, kind decisionKind) ([]ItemActionResult, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, &ValidationError{Field: "request_id", Reason: "invalid identifier"}
	}
	if len(dto.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}

	actor, err := s.users.GetByID(ctx, dto.ActorID)
	if err != nil {
		return nil, &ValidationError{Field: "actor_id", Reason: "unknown actor"}
	}

	results := make([]ItemActionResult, 0, len(dto.Items))
	for _, action := range dto.Items {
		result := ItemActionResult{ItemID: action.ItemID}

		itemID, parseErr := uuid.Parse(action.ItemID)
		if parseErr != nil {
			result.Error = "invalid item identifier"
			result.ErrorType = "validation"
			results = append(results, result)
			continue
		}

		// One transaction per item: a failure on one line never rolls
		// back or blocks the others.
		var decided *model.RequestItem
		txErr := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
			var innerErr error
			decided, innerErr = s.decideItem(txCtx, reqID, itemID, action, dto, actor, kind)
			return innerErr
		})

		if txErr != nil {
			result.Error = txErr.Error()
			result.ErrorType = classifyError(txErr)
		} else {
			result.Success = true
			result.DecisionType = decided.DecisionType
			result.Version = decided.Version
		}
		results = append(results, result)
	}

	broadcastEvent(s.hub, "request_decided", map[string]interface{}{
		"request_id": requestID,
		"actor_id":   dto.ActorID,
	})

	return results, nil
}

// decideItem applies one decision to one item inside an open transaction
func (s *approvalService) decideItem(ctx context.Context, requestID, itemID uuid.UUID, action ItemActionDTO, dto BatchActionDTO, actor *model.User, kind decisionKind) (*model.RequestItem, error) {
	item, err := s.requests.FindItemForUpdate(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item not found: %w", err)
	}
	if item.RequestID != requestID {
		return nil, &ValidationError{Field: "item_id", Reason: "item does not belong to this request"}
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("request not found: %w", err)
	}

	entries, err := s.audits.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit trail: %w", err)
	}

	itemIDs := make([]uuid.UUID, 0, len(request.Items))
	for _, it := range request.Items {
		itemIDs = append(itemIDs, it.ID)
	}
	state := FoldTrail(entries, itemIDs)
	itemState := state.Items[itemID]

	// Optimistic concurrency first: a stale observation is a conflict even
	// when the item has since gone terminal.
	if action.ObservedVersion != nil && *action.ObservedVersion != itemState.Version {
		return nil, &ConcurrentModificationError{
			ObservedVersion: *action.ObservedVersion,
			CurrentVersion:  itemState.Version,
		}
	}
	if model.TerminalDecision(itemState.Decision) {
		return nil, &AlreadyResolvedError{Decision: itemState.Decision}
	}

	if scopeErr := checkActorScope(actor, request, itemState.Level); scopeErr != nil {
		return nil, scopeErr
	}

	entry := &model.AuditEntry{
		RequestID: requestID,
		ItemID:    &itemID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Comments:  dto.Comments,
	}

	switch kind {
	case kindApprove:
		decision := action.Decision
		if decision == "" {
			decision = model.DecisionApproveFromStock
		}
		if decision != model.DecisionApproveFromStock && decision != model.DecisionApproveForProcurement {
			return nil, &ValidationError{Field: "decision", Reason: "must be APPROVE_FROM_STOCK or APPROVE_FOR_PROCUREMENT"}
		}

		qty := item.RequestedQuantity
		if action.ApprovedQuantity != nil {
			qty = *action.ApprovedQuantity
		}
		if qty <= 0 || qty > item.RequestedQuantity {
			return nil, &ValidationError{Field: "approved_quantity", Reason: "must be within (0, requested_quantity]"}
		}

		if decision == model.DecisionApproveFromStock {
			if item.IsCustomItem || item.ItemMasterID == nil {
				return nil, &ValidationError{Field: "decision", Reason: "custom items cannot be approved from stock"}
			}
			if stockErr := s.checkActorPool(ctx, item, request, itemState.Level, qty); stockErr != nil {
				return nil, stockErr
			}
		}

		entry.Action = model.ActionApproved
		entry.Decision = decision
		entry.Quantity = &qty

	case kindForward:
		if targetLevel(dto.TargetRole) == itemState.Level {
			return nil, &ValidationError{Field: "target_role", Reason: "item is already pending at that level"}
		}
		entry.Action = model.ActionForwarded
		entry.Decision = forwardDecision(dto.TargetRole)
		entry.TargetLevel = targetLevel(dto.TargetRole)
		entry.Comments = dto.Reason

	case kindReject:
		entry.Action = model.ActionRejected
		entry.Decision = model.DecisionReject

	case kindReturn:
		// Send back to requester for revision; terminal for this request.
		// A revision arrives as a new request linked via original_request_id.
		entry.Action = model.ActionRejected
		entry.Decision = model.DecisionReturn
	}

	if appendErr := s.audits.Append(ctx, entry); appendErr != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", appendErr)
	}

	// Re-derive the projections from the extended trail — the fold is the
	// only status computation.
	newState := FoldTrail(append(entries, *entry), itemIDs)
	newItemState := newState.Items[itemID]

	item.DecisionType = newItemState.Decision
	item.CurrentLevel = newItemState.Level
	item.ApprovedQuantity = newItemState.ApprovedQuantity
	item.Version = newItemState.Version
	if saveErr := s.requests.SaveItem(ctx, item); saveErr != nil {
		return nil, fmt.Errorf("failed to save item projection: %w", saveErr)
	}
	if statusErr := s.requests.UpdateStatus(ctx, requestID, newState.Status); statusErr != nil {
		return nil, fmt.Errorf("failed to save request status: %w", statusErr)
	}

	return item, nil
}

// checkActorPool verifies the actor's own pool can cover an
// approve-from-stock decision at the item's owning level.
func (s *approvalService) checkActorPool(ctx context.Context, item *model.RequestItem, request *model.IssuanceRequest, level string, qty int) error {
	avail, err := s.stocks.CheckAvailability(ctx, *item.ItemMasterID, request.WingID, item.RequestedQuantity)
	if err != nil {
		return err
	}
	if level == model.LevelAdmin {
		if avail.AdminAvailable < qty {
			return &InsufficientStockError{Requested: qty, Available: avail.AdminAvailable, Pool: "admin"}
		}
		return nil
	}
	if avail.WingAvailable < qty {
		return &InsufficientStockError{Requested: qty, Available: avail.WingAvailable, Pool: "wing"}
	}
	return nil
}

func checkActorScope(actor *model.User, request *model.IssuanceRequest, level string) error {
	switch level {
	case model.LevelSupervisor:
		if actor.Role != model.RoleSupervisor {
			return &PermissionScopeError{ActorRole: actor.Role, Level: level}
		}
		if actor.WingID == nil || request.WingID == nil || *actor.WingID != *request.WingID {
			return &PermissionScopeError{ActorRole: actor.Role, Level: level}
		}
	case model.LevelAdmin:
		if actor.Role != model.RoleAdmin {
			return &PermissionScopeError{ActorRole: actor.Role, Level: level}
		}
	default:
		return &InvalidStateError{Expected: "a pending owning level", Actual: level}
	}
	return nil
}

func forwardDecision(targetRole string) string {
	if targetRole == model.RoleAdmin {
		return model.DecisionForwardToAdmin
	}
	return model.DecisionForwardToSupervisor
}

func targetLevel(targetRole string) string {
	if targetRole == model.RoleAdmin {
		return model.LevelAdmin
	}
	return model.LevelSupervisor
}

func classifyError(err error) string {
	var (
		vErr *ValidationError
		sErr *InsufficientStockError
		iErr *InvalidStateError
		aErr *AlreadyResolvedError
		cErr *ConcurrentModificationError
		pErr *PermissionScopeError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &sErr):
		return "insufficient_stock"
	case errors.As(err, &aErr):
		return "already_resolved"
	case errors.As(err, &cErr):
		return "concurrent_modification"
	case errors.As(err, &pErr):
		return "permission_scope"
	case errors.As(err, &iErr):
		return "invalid_state"
	default:
		return "internal"
	}
}

// --- Reads ---

func (s *approvalService) ListPending(ctx context.Context, role, scopeID string, page, limit int) ([]PendingRequestSummary, int64, error) {
	var level string
	var wingID *uuid.UUID

	switch role {
	case model.RoleSupervisor:
		level = model.LevelSupervisor
		parsed, err := uuid.Parse(scopeID)
		if err != nil {
			return nil, 0, &ValidationError{Field: "scope_id", Reason: "supervisor listing requires a wing scope"}
		}
		wingID = &parsed
	case model.RoleAdmin:
		level = model.LevelAdmin
	default:
		return nil, 0, &ValidationError{Field: "role", Reason: "must be supervisor or admin"}
	}

	requests, total, err := s.requests.ListPendingAtLevel(ctx, level, wingID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending requests: %w", err)
	}

	summaries := make([]PendingRequestSummary, 0, len(requests))
	for _, req := range requests {
		summary := PendingRequestSummary{
			RequestID:    req.ID.String(),
			Purpose:      req.Purpose,
			UrgencyLevel: req.UrgencyLevel,
			SubmittedAt:  req.CreatedAt.Format(time.RFC3339),
			ItemCount:    len(req.Items),
		}
		if req.Requester != nil {
			summary.RequesterName = req.Requester.Username
		}
		for _, item := range req.Items {
			if item.DecisionType == model.DecisionPending && item.CurrentLevel == level {
				summary.PendingItems++
			}
		}
		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

func (s *approvalService) GetRequestDetails(ctx context.Context, requestID string) (RequestDetails, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return RequestDetails{}, &ValidationError{Field: "request_id", Reason: "invalid identifier"}
	}

	request, err := s.requests.FindByIDWithRelations(ctx, reqID)
	if err != nil {
		return RequestDetails{}, fmt.Errorf("request not found: %w", err)
	}

	history, err := s.audits.ListByRequest(ctx, reqID)
	if err != nil {
		return RequestDetails{}, fmt.Errorf("failed to load audit trail: %w", err)
	}

	details := RequestDetails{
		RequestID:    request.ID.String(),
		RequestType:  request.RequestType,
		RequesterID:  request.RequesterID.String(),
		Purpose:      request.Purpose,
		UrgencyLevel: request.UrgencyLevel,
		IsReturnable: request.IsReturnable,
		Status:       request.Status,
		SubmittedAt:  request.CreatedAt.Format(time.RFC3339),
		History:      history,
	}
	if request.Requester != nil {
		details.RequesterName = request.Requester.Username
	}
	if request.WingID != nil {
		wing := request.WingID.String()
		details.WingID = &wing
	}
	if request.ExpectedReturnDate != nil {
		ret := request.ExpectedReturnDate.Format(time.RFC3339)
		details.ExpectedReturnDate = &ret
	}

	for i := range request.Items {
		item := &request.Items[i]
		detail := RequestItemDetail{
			ItemID:            item.ID.String(),
			Nomenclature:      item.Nomenclature,
			IsCustomItem:      item.IsCustomItem,
			RequestedQuantity: item.RequestedQuantity,
			ApprovedQuantity:  item.ApprovedQuantity,
			IssuedQuantity:    item.IssuedQuantity,
			DecisionType:      item.DecisionType,
			CurrentLevel:      item.CurrentLevel,
			Version:           item.Version,
			Availability:      s.stocks.AnnotateItem(ctx, item, request.WingID),
		}
		if item.ItemMasterID != nil {
			id := item.ItemMasterID.String()
			detail.ItemMasterID = &id
		}
		details.Items = append(details.Items, detail)
	}

	return details, nil
}

func (s *approvalService) GetItemTracking(ctx context.Context, itemID string) (ItemTracking, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return ItemTracking{}, &ValidationError{Field: "item_id", Reason: "invalid identifier"}
	}

	item, err := s.requests.FindItemByID(ctx, id)
	if err != nil {
		return ItemTracking{}, fmt.Errorf("item not found: %w", err)
	}

	history, err := s.audits.ListByItem(ctx, id)
	if err != nil {
		return ItemTracking{}, fmt.Errorf("failed to load item history: %w", err)
	}

	return ItemTracking{
		ItemID:       item.ID.String(),
		DecisionType: item.DecisionType,
		CurrentLevel: item.CurrentLevel,
		Version:      item.Version,
		History:      history,
	}, nil
}
