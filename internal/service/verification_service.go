package service

import (
	"context"
	"fmt"
	"time"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type ForwardVerificationDTO struct {
	ItemID        string `json:"item_id" binding:"required"`
	ActorID       string `json:"actor_id"` // Defaults to the authenticated caller
	StoreKeeperID string `json:"store_keeper_id" binding:"required"`
}

type SubmitVerificationDTO struct {
	StoreKeeperID     string `json:"store_keeper_id"`                   // Defaults to the authenticated caller
	Classification    string `json:"classification" binding:"required"` // available, partial, unavailable
	PhysicalCount     int    `json:"physical_count"`
	AvailableQuantity *int   `json:"available_quantity"` // Required for partial
	Notes             string `json:"notes"`
}

type VerificationTaskResponse struct {
	TaskID            string  `json:"task_id"`
	RequestItemID     string  `json:"request_item_id"`
	RequestID         string  `json:"request_id"`
	Status            string  `json:"verification_status"`
	SystemWingQty     int     `json:"system_wing_quantity"`
	SystemAdminQty    int     `json:"system_admin_quantity"`
	PhysicalCount     *int    `json:"physical_count"`
	AvailableQuantity *int    `json:"available_quantity"`
	ForwardedBy       string  `json:"forwarded_by"`
	ForwardedTo       string  `json:"forwarded_to"`
	VerifiedBy        *string `json:"verified_by"`
	Notes             string  `json:"notes"`
	CreatedAt         string  `json:"created_at"`
	VerifiedAt        *string `json:"verified_at"`
}

// VerificationService runs the store-keeper verification sub-workflow. A
// forward creates a task seeded with the resolver's believed quantities; the
// store keeper's result is recorded on the trail as an input for the
// forwarding actor — it never resolves the item on its own, preserving human
// sign-off.
type VerificationService interface {
	ForwardForVerification(ctx context.Context, dto ForwardVerificationDTO) (VerificationTaskResponse, error)
	SubmitVerification(ctx context.Context, taskID string, dto SubmitVerificationDTO) (VerificationTaskResponse, error)
	GetTask(ctx context.Context, taskID string) (VerificationTaskResponse, error)
	ListOpenTasks(ctx context.Context, storeKeeperID string) ([]VerificationTaskResponse, error)
}

type verificationService struct {
	txm           repository.TransactionManager
	verifications repository.VerificationRepository
	requests      repository.RequestRepository
	audits        repository.AuditRepository
	users         repository.UserRepository
	stocks        StockService
	hub           Broadcaster
}

func NewVerificationService(txm repository.TransactionManager, verifications repository.VerificationRepository, requests repository.RequestRepository, audits repository.AuditRepository, users repository.UserRepository, stocks StockService, hub Broadcaster) VerificationService {
	return &verificationService{txm: txm, verifications: verifications, requests: requests, audits: audits, users: users, stocks: stocks, hub: hub}
}

func (s *verificationService) ForwardForVerification(ctx context.Context, dto ForwardVerificationDTO) (VerificationTaskResponse, error) {
	itemID, err := uuid.Parse(dto.ItemID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "item_id", Reason: "invalid identifier"}
	}
	actorID, err := uuid.Parse(dto.ActorID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "actor_id", Reason: "invalid identifier"}
	}

	keeper, err := s.users.GetByID(ctx, dto.StoreKeeperID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "store_keeper_id", Reason: "unknown store keeper"}
	}
	if keeper.Role != model.RoleStoreKeeper {
		return VerificationTaskResponse{}, &ValidationError{Field: "store_keeper_id", Reason: "target user is not a store keeper"}
	}

	actor, err := s.users.GetByID(ctx, actorID.String())
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "actor_id", Reason: "unknown actor"}
	}

	var task *model.VerificationTask
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		item, findErr := s.requests.FindItemForUpdate(txCtx, itemID)
		if findErr != nil {
			return fmt.Errorf("item not found: %w", findErr)
		}
		if model.TerminalDecision(item.DecisionType) {
			return &AlreadyResolvedError{Decision: item.DecisionType}
		}
		if item.DecisionType != model.DecisionPending {
			return &InvalidStateError{Expected: model.DecisionPending, Actual: item.DecisionType}
		}

		request, findErr := s.requests.FindByID(txCtx, item.RequestID)
		if findErr != nil {
			return fmt.Errorf("request not found: %w", findErr)
		}

		// Seed the task with the system's belief prior to physical count
		task = &model.VerificationTask{
			RequestItemID: item.ID,
			RequestID:     item.RequestID,
			Status:        model.VerificationForwarded,
			ForwardedByID: actor.ID,
			ForwardedToID: keeper.ID,
		}
		if !item.IsCustomItem && item.ItemMasterID != nil {
			avail, availErr := s.stocks.CheckAvailability(txCtx, *item.ItemMasterID, request.WingID, item.RequestedQuantity)
			if availErr == nil {
				task.SystemWingQuantity = avail.WingAvailable
				task.SystemAdminQuantity = avail.AdminAvailable
			}
		}

		if createErr := s.verifications.Create(txCtx, task); createErr != nil {
			return fmt.Errorf("failed to create verification task: %w", createErr)
		}

		// The item's decision stays PENDING; the trail records that it is
		// now awaiting a physical count.
		entry := &model.AuditEntry{
			RequestID:     item.RequestID,
			ItemID:        &item.ID,
			Action:        model.ActionPending,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			Comments:      "forwarded for physical stock verification",
			ForwardedToID: &keeper.ID,
		}
		if appendErr := s.audits.Append(txCtx, entry); appendErr != nil {
			return fmt.Errorf("failed to append audit entry: %w", appendErr)
		}
		return nil
	})
	if err != nil {
		return VerificationTaskResponse{}, err
	}

	broadcastEvent(s.hub, "verification_forwarded", map[string]interface{}{
		"task_id":         task.ID.String(),
		"store_keeper_id": keeper.ID.String(),
	})

	return toVerificationResponse(task), nil
}

func (s *verificationService) SubmitVerification(ctx context.Context, taskID string, dto SubmitVerificationDTO) (VerificationTaskResponse, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "task_id", Reason: "invalid identifier"}
	}
	keeperID, err := uuid.Parse(dto.StoreKeeperID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "store_keeper_id", Reason: "invalid identifier"}
	}

	var task *model.VerificationTask
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		task, findErr = s.verifications.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return fmt.Errorf("verification task not found: %w", findErr)
		}
		if model.TerminalVerification(task.Status) {
			return &AlreadyResolvedError{Decision: task.Status}
		}
		if task.ForwardedToID != keeperID {
			return &PermissionScopeError{ActorRole: model.RoleStoreKeeper, Level: "verification task"}
		}

		item, findErr := s.requests.FindItemByID(txCtx, task.RequestItemID)
		if findErr != nil {
			return fmt.Errorf("request item not found: %w", findErr)
		}

		if dto.PhysicalCount < 0 || dto.PhysicalCount > item.RequestedQuantity {
			return &ValidationError{Field: "physical_count", Reason: "must be within [0, requested_quantity]"}
		}

		status, available, classErr := resolveClassification(dto, item.RequestedQuantity)
		if classErr != nil {
			return classErr
		}

		now := time.Now()
		physical := dto.PhysicalCount
		task.Status = status
		task.PhysicalCount = &physical
		task.AvailableQuantity = &available
		task.VerifiedByID = &keeperID
		task.VerifiedAt = &now
		task.Notes = dto.Notes
		if saveErr := s.verifications.Save(txCtx, task); saveErr != nil {
			return fmt.Errorf("failed to save verification result: %w", saveErr)
		}

		entry := &model.AuditEntry{
			RequestID: task.RequestID,
			ItemID:    &task.RequestItemID,
			Action:    model.ActionVerified,
			ActorID:   keeperID,
			ActorRole: model.RoleStoreKeeper,
			Quantity:  &available,
			Comments:  dto.Notes,
		}
		if appendErr := s.audits.Append(txCtx, entry); appendErr != nil {
			return fmt.Errorf("failed to append audit entry: %w", appendErr)
		}
		return nil
	})
	if err != nil {
		return VerificationTaskResponse{}, err
	}

	broadcastEvent(s.hub, "verification_submitted", map[string]interface{}{
		"task_id": task.ID.String(),
		"status":  task.Status,
	})

	return toVerificationResponse(task), nil
}

// resolveClassification maps the store keeper's classification to a terminal
// task status and the available quantity the forwarding actor may act on.
func resolveClassification(dto SubmitVerificationDTO, requestedQty int) (string, int, error) {
	switch dto.Classification {
	case model.ClassificationAvailable:
		if dto.PhysicalCount < requestedQty {
			return "", 0, &ValidationError{Field: "classification", Reason: "available requires physical count >= requested quantity"}
		}
		return model.VerifiedAvailable, requestedQty, nil

	case model.ClassificationPartial:
		if dto.AvailableQuantity == nil {
			return "", 0, &ValidationError{Field: "available_quantity", Reason: "required for a partial result"}
		}
		available := *dto.AvailableQuantity
		if available <= 0 || available >= requestedQty {
			return "", 0, &ValidationError{Field: "available_quantity", Reason: "partial result must be within (0, requested_quantity)"}
		}
		return model.VerifiedPartial, available, nil

	case model.ClassificationUnavailable:
		return model.VerifiedUnavailable, 0, nil

	default:
		return "", 0, &ValidationError{Field: "classification", Reason: "must be available, partial or unavailable"}
	}
}

func (s *verificationService) GetTask(ctx context.Context, taskID string) (VerificationTaskResponse, error) {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return VerificationTaskResponse{}, &ValidationError{Field: "task_id", Reason: "invalid identifier"}
	}
	task, err := s.verifications.FindByID(ctx, id)
	if err != nil {
		return VerificationTaskResponse{}, fmt.Errorf("verification task not found: %w", err)
	}
	return toVerificationResponse(task), nil
}

func (s *verificationService) ListOpenTasks(ctx context.Context, storeKeeperID string) ([]VerificationTaskResponse, error) {
	id, err := uuid.Parse(storeKeeperID)
	if err != nil {
		return nil, &ValidationError{Field: "store_keeper_id", Reason: "invalid identifier"}
	}
	tasks, err := s.verifications.ListOpenForStoreKeeper(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification tasks: %w", err)
	}
	result := make([]VerificationTaskResponse, 0, len(tasks))
	for i := range tasks {
		result = append(result, toVerificationResponse(&tasks[i]))
	}
	return result, nil
}

func toVerificationResponse(task *model.VerificationTask) VerificationTaskResponse {
	resp := VerificationTaskResponse{
		TaskID:            task.ID.String(),
		RequestItemID:     task.RequestItemID.String(),
		RequestID:         task.RequestID.String(),
		Status:            task.Status,
		SystemWingQty:     task.SystemWingQuantity,
		SystemAdminQty:    task.SystemAdminQuantity,
		PhysicalCount:     task.PhysicalCount,
		AvailableQuantity: task.AvailableQuantity,
		ForwardedBy:       task.ForwardedByID.String(),
		ForwardedTo:       task.ForwardedToID.String(),
		Notes:             task.Notes,
		CreatedAt:         task.CreatedAt.Format(time.RFC3339),
	}
	if task.VerifiedByID != nil {
		v := task.VerifiedByID.String()
		resp.VerifiedBy = &v
	}
	if task.VerifiedAt != nil {
		v := task.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &v
	}
	return resp
}
