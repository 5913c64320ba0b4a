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

type SubmitItemDTO struct {
	ItemMasterID      string `json:"item_master_id"`
	Nomenclature      string `json:"nomenclature"`
	IsCustomItem      bool   `json:"is_custom_item"`
	RequestedQuantity int    `json:"requested_quantity"`
}

type SubmitRequestDTO struct {
	RequestType        string          `json:"request_type" binding:"required"`
	RequesterID        string          `json:"requester_id" binding:"required"`
	WingID             string          `json:"wing_id"`
	Purpose            string          `json:"purpose"`
	UrgencyLevel       string          `json:"urgency_level"`
	IsReturnable       bool            `json:"is_returnable"`
	ExpectedReturnDate *time.Time      `json:"expected_return_date"`
	OriginalRequestID  string          `json:"original_request_id"`
	Items              []SubmitItemDTO `json:"items"`
}

type SubmitRequestResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// IntakeService validates and creates new issuance requests, seeding the
// audit trail with the submitted entry. No stock is reserved at submission
// time — availability is checked, never held, until resolution.
type IntakeService interface {
	SubmitRequest(ctx context.Context, req SubmitRequestDTO) (SubmitRequestResponse, error)
}

type intakeService struct {
	txm      repository.TransactionManager
	requests repository.RequestRepository
	audits   repository.AuditRepository
	users    repository.UserRepository
	hub      Broadcaster
}

func NewIntakeService(txm repository.TransactionManager, requests repository.RequestRepository, audits repository.AuditRepository, users repository.UserRepository, hub Broadcaster) IntakeService {
	return &intakeService{txm: txm, requests: requests, audits: audits, users: users, hub: hub}
}

func (s *intakeService) SubmitRequest(ctx context.Context, req SubmitRequestDTO) (SubmitRequestResponse, error) {
	request, err := s.buildRequest(ctx, req)
	if err != nil {
		return SubmitRequestResponse{}, err
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requests.Create(txCtx, request); createErr != nil {
			return fmt.Errorf("failed to create issuance request: %w", createErr)
		}

		seed := &model.AuditEntry{
			RequestID: request.ID,
			Action:    model.ActionSubmitted,
			ActorID:   request.RequesterID,
			ActorRole: model.RoleRequester,
			Comments:  request.Purpose,
		}
		if appendErr := s.audits.Append(txCtx, seed); appendErr != nil {
			return fmt.Errorf("failed to seed audit trail: %w", appendErr)
		}
		return nil
	})
	if err != nil {
		return SubmitRequestResponse{}, err
	}

	broadcastEvent(s.hub, "request_submitted", map[string]interface{}{
		"request_id": request.ID.String(),
		"urgency":    request.UrgencyLevel,
	})

	return SubmitRequestResponse{RequestID: request.ID.String(), Status: request.Status}, nil
}

func (s *intakeService) buildRequest(ctx context.Context, req SubmitRequestDTO) (*model.IssuanceRequest, error) {
	if req.Purpose == "" {
		return nil, &ValidationError{Field: "purpose", Reason: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "at least one item is required"}
	}

	switch req.RequestType {
	case model.RequestTypeIndividual, model.RequestTypeOrganizational:
	default:
		return nil, &ValidationError{Field: "request_type", Reason: "must be Individual or Organizational"}
	}

	urgency := req.UrgencyLevel
	if urgency == "" {
		urgency = model.UrgencyNormal
	}
	switch urgency {
	case model.UrgencyLow, model.UrgencyNormal, model.UrgencyHigh, model.UrgencyCritical:
	default:
		return nil, &ValidationError{Field: "urgency_level", Reason: "unknown urgency level"}
	}

	requesterID, err := uuid.Parse(req.RequesterID)
	if err != nil {
		return nil, &ValidationError{Field: "requester_id", Reason: "invalid identifier"}
	}
	requester, err := s.users.GetByID(ctx, requesterID.String())
	if err != nil {
		return nil, &ValidationError{Field: "requester_id", Reason: "unknown requester"}
	}

	var wingID *uuid.UUID
	if req.WingID != "" {
		parsed, parseErr := uuid.Parse(req.WingID)
		if parseErr != nil {
			return nil, &ValidationError{Field: "wing_id", Reason: "invalid identifier"}
		}
		wingID = &parsed
	} else if requester.WingID != nil {
		wingID = requester.WingID
	}
	// Every request needs a wing scope: items start in the wing supervisor's
	// queue, and a wing-less request would be visible to no approver at all.
	if wingID == nil {
		return nil, &ValidationError{Field: "wing_id", Reason: "a wing scope is required; the requester has no home wing"}
	}

	var originalID *uuid.UUID
	if req.OriginalRequestID != "" {
		parsed, parseErr := uuid.Parse(req.OriginalRequestID)
		if parseErr != nil {
			return nil, &ValidationError{Field: "original_request_id", Reason: "invalid identifier"}
		}
		originalID = &parsed
	}

	items := make([]model.RequestItem, 0, len(req.Items))
	for i, it := range req.Items {
		if it.RequestedQuantity <= 0 {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("items[%d].requested_quantity", i),
				Reason: "must be greater than zero",
			}
		}

		item := model.RequestItem{
			Nomenclature:      it.Nomenclature,
			IsCustomItem:      it.IsCustomItem,
			RequestedQuantity: it.RequestedQuantity,
			DecisionType:      model.DecisionPending,
			CurrentLevel:      model.LevelSupervisor,
		}
		if it.IsCustomItem {
			if it.Nomenclature == "" {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("items[%d].nomenclature", i),
					Reason: "custom items require a description",
				}
			}
		} else {
			parsed, parseErr := uuid.Parse(it.ItemMasterID)
			if parseErr != nil {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("items[%d].item_master_id", i),
					Reason: "invalid identifier",
				}
			}
			item.ItemMasterID = &parsed
		}
		items = append(items, item)
	}

	return &model.IssuanceRequest{
		RequestType:        req.RequestType,
		RequesterID:        requesterID,
		WingID:             wingID,
		Purpose:            req.Purpose,
		UrgencyLevel:       urgency,
		IsReturnable:       req.IsReturnable,
		ExpectedReturnDate: req.ExpectedReturnDate,
		OriginalRequestID:  originalID,
		Status:             model.RequestStatusSubmitted,
		Items:              items,
	}, nil
}
