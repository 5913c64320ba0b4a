package service

import (
	"context"
	"fmt"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"

	"github.com/google/uuid"
)

// ItemState is the derived state of one request item at a point in the trail
type ItemState struct {
	Decision             string `json:"decision_type"`
	Level                string `json:"current_level"`
	ApprovedQuantity     *int   `json:"approved_quantity"`
	AwaitingVerification bool   `json:"awaiting_verification"`
	Version              int    `json:"version"`
}

// RequestState is the derived state of a request and all of its items
type RequestState struct {
	Status string                  `json:"status"`
	Items  map[uuid.UUID]ItemState `json:"items"`
}

// TrailService is the append-only audit ledger. Reconstruct is the only code
// path in the system that derives request/item status; every projection
// column is written from its output, in the same transaction as the append
// that changed it.
type TrailService interface {
	History(ctx context.Context, requestID uuid.UUID) ([]model.AuditEntry, error)
	ItemHistory(ctx context.Context, itemID uuid.UUID) ([]model.AuditEntry, error)
	Reconstruct(ctx context.Context, requestID uuid.UUID, itemIDs []uuid.UUID) (RequestState, error)
}

type trailService struct {
	audits repository.AuditRepository
}

func NewTrailService(audits repository.AuditRepository) TrailService {
	return &trailService{audits: audits}
}

func (s *trailService) History(ctx context.Context, requestID uuid.UUID) ([]model.AuditEntry, error) {
	return s.audits.ListByRequest(ctx, requestID)
}

func (s *trailService) ItemHistory(ctx context.Context, itemID uuid.UUID) ([]model.AuditEntry, error) {
	return s.audits.ListByItem(ctx, itemID)
}

func (s *trailService) Reconstruct(ctx context.Context, requestID uuid.UUID, itemIDs []uuid.UUID) (RequestState, error) {
	entries, err := s.audits.ListByRequest(ctx, requestID)
	if err != nil {
		return RequestState{}, fmt.Errorf("failed to load audit trail: %w", err)
	}
	return FoldTrail(entries, itemIDs), nil
}

// FoldTrail folds an ordered entry list into the current request and item
// states. It is pure: same entries in, same state out, no hidden inputs.
func FoldTrail(entries []model.AuditEntry, itemIDs []uuid.UUID) RequestState {
	items := make(map[uuid.UUID]ItemState, len(itemIDs))
	for _, id := range itemIDs {
		items[id] = ItemState{Decision: model.DecisionPending, Level: model.LevelSupervisor}
	}

	for _, entry := range entries {
		if entry.ItemID == nil {
			continue // request-level entries (submitted) carry no item transition
		}
		state, ok := items[*entry.ItemID]
		if !ok {
			continue
		}

		switch entry.Action {
		case model.ActionApproved:
			state.Decision = entry.Decision
			if entry.Quantity != nil {
				qty := *entry.Quantity
				state.ApprovedQuantity = &qty
			}
			state.AwaitingVerification = false
			state.Version++
		case model.ActionRejected:
			// Covers both REJECT and RETURN; the entry's decision tells them apart
			state.Decision = entry.Decision
			state.AwaitingVerification = false
			state.Version++
		case model.ActionForwarded:
			state.Decision = model.DecisionPending
			state.Level = entry.TargetLevel
			state.Version++
		case model.ActionPending:
			// Item handed to a store keeper for physical verification;
			// the decision itself stays PENDING at the same level.
			state.AwaitingVerification = true
		case model.ActionVerified:
			state.AwaitingVerification = false
		}

		items[*entry.ItemID] = state
	}

	return RequestState{Status: deriveRequestStatus(items), Items: items}
}

func deriveRequestStatus(items map[uuid.UUID]ItemState) string {
	pendingSupervisor := 0
	pendingAdmin := 0
	approved := 0
	refused := 0

	for _, state := range items {
		switch state.Decision {
		case model.DecisionPending:
			if state.Level == model.LevelAdmin {
				pendingAdmin++
			} else {
				pendingSupervisor++
			}
		case model.DecisionApproveFromStock, model.DecisionApproveForProcurement:
			approved++
		case model.DecisionReject, model.DecisionReturn:
			refused++
		}
	}

	if pendingSupervisor > 0 {
		return model.RequestStatusSubmitted
	}
	if pendingAdmin > 0 {
		return model.RequestStatusForwardedToAdmin
	}
	// Every item terminal
	switch {
	case approved > 0 && refused > 0:
		return model.RequestStatusPartiallyApproved
	case approved > 0:
		return model.RequestStatusApproved
	default:
		return model.RequestStatusRejected
	}
}
