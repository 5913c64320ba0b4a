package service_test

import (
	"context"
	"testing"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovePartialQuantityFromWingStock(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID:  env.supervisor.ID.String(),
		Comments: "only three needed now",
		Items:    []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(0), ApprovedQuantity: intPtr(3)}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)
	assert.Equal(t, model.DecisionApproveFromStock, results[0].DecisionType)
	assert.Equal(t, 1, results[0].Version)

	item := env.loadItem(t, itemID)
	assert.Equal(t, model.DecisionApproveFromStock, item.DecisionType)
	require.NotNil(t, item.ApprovedQuantity)
	assert.Equal(t, 3, *item.ApprovedQuantity)
	assert.Equal(t, 1, item.Version)

	request := env.loadRequest(t, requestID)
	assert.Equal(t, model.RequestStatusApproved, request.Status)

	// Approval never touches stock
	assert.Equal(t, 10, env.poolQty(t, &env.wing.ID))
}

func TestApproveQuantityBounds(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	for _, qty := range []int{0, -1, 6} {
		results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
			ActorID: env.supervisor.ID.String(),
			Items:   []service.ItemActionDTO{{ItemID: itemID, ApprovedQuantity: intPtr(qty)}},
		})
		require.NoError(t, err)
		require.False(t, results[0].Success)
		assert.Equal(t, "validation", results[0].ErrorType)
	}

	// Item is untouched after every rejected attempt
	item := env.loadItem(t, itemID)
	assert.Equal(t, model.DecisionPending, item.DecisionType)
	assert.Equal(t, 0, item.Version)
}

func TestApproveInsufficientWingStock(t *testing.T) {
	env := newTestEnv(t)
	env.setPool(t, &env.wing.ID, 2)
	requestID, itemID := env.submit(t, 5)

	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "insufficient_stock", results[0].ErrorType)

	// Procurement approval is the way out when the pool cannot cover it
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, Decision: model.DecisionApproveForProcurement}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)
	assert.Equal(t, model.DecisionApproveForProcurement, results[0].DecisionType)
}

func TestForwardToAdminRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 20) // more than the wing pool holds

	results, err := env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "wing pool cannot cover, escalating",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(0)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)

	item := env.loadItem(t, itemID)
	assert.Equal(t, model.DecisionPending, item.DecisionType)
	assert.Equal(t, model.LevelAdmin, item.CurrentLevel)
	assert.Equal(t, 1, item.Version)
	assert.Equal(t, model.RequestStatusForwardedToAdmin, env.loadRequest(t, requestID).Status)

	// The supervisor no longer owns the item
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "permission_scope", results[0].ErrorType)

	// Admin approves against the central pool
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(1)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)
	assert.Equal(t, 2, results[0].Version)
	assert.Equal(t, model.RequestStatusApproved, env.loadRequest(t, requestID).Status)
}

func TestForwardToCurrentLevelIsRejected(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	// Forwarding an item to the level it already sits at would bump the
	// version and write a trail entry without moving anything
	results, err := env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "second opinion",
		TargetRole: model.RoleSupervisor,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "validation", results[0].ErrorType)

	item := env.loadItem(t, itemID)
	assert.Equal(t, model.LevelSupervisor, item.CurrentLevel)
	assert.Equal(t, 0, item.Version)

	// Same rule at the admin level after a real escalation
	results, err = env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "wing pool cannot cover",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)

	results, err = env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.admin.ID.String(),
		Reason:     "stay here",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "validation", results[0].ErrorType)
	assert.Equal(t, 1, env.loadItem(t, itemID).Version)
}

func TestForwardRequiresReasonAndTarget(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	_, err := env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reason", vErr.Field)

	_, err = env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "needs higher authority",
		TargetRole: "manager",
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "target_role", vErr.Field)
}

func TestRejectAndReturnAreTerminal(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	_, err := env.approval.Reject(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	var vErr *service.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "comments", vErr.Field)

	results, err := env.approval.Return(context.Background(), requestID, service.BatchActionDTO{
		ActorID:  env.supervisor.ID.String(),
		Comments: "split this into two requests",
		Items:    []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(0)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)

	item := env.loadItem(t, itemID)
	assert.Equal(t, model.DecisionReturn, item.DecisionType)
	assert.Equal(t, model.RequestStatusRejected, env.loadRequest(t, requestID).Status)

	// Terminal decisions are immutable
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "already_resolved", results[0].ErrorType)
}

func TestStaleObservedVersionIsAConflict(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	// Move the item while the second actor still holds the version-0 read
	results, err := env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "escalating",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(0)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success)

	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(0)}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "concurrent_modification", results[0].ErrorType)

	// The stale-read conflict outranks terminality: resolve the item, then
	// replay both a stale and a current observation against it.
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(1)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success)

	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "concurrent_modification", results[0].ErrorType)

	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ObservedVersion: intPtr(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "already_resolved", results[0].ErrorType)
}

func TestSupervisorScopeIsWingBound(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.outsider.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "permission_scope", results[0].ErrorType)

	// Admins cannot decide supervisor-owned items either
	results, err = env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.False(t, results[0].Success)
	assert.Equal(t, "permission_scope", results[0].ErrorType)
}

func TestBatchDecidesItemsIndependently(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.intake.SubmitRequest(context.Background(), service.SubmitRequestDTO{
		RequestType: model.RequestTypeOrganizational,
		RequesterID: env.requester.ID.String(),
		WingID:      env.wing.ID.String(),
		Purpose:     "mixed batch",
		Items: []service.SubmitItemDTO{
			{ItemMasterID: env.item.ID.String(), Nomenclature: env.item.Nomenclature, RequestedQuantity: 2},
			{Nomenclature: "Custom antenna bracket", IsCustomItem: true, RequestedQuantity: 1},
		},
	})
	require.NoError(t, err)

	var items []model.RequestItem
	require.NoError(t, env.db.Where("request_id = ?", res.RequestID).Order("created_at asc").Find(&items).Error)
	require.Len(t, items, 2)
	stockItem, customItem := items[0], items[1]
	if stockItem.IsCustomItem {
		stockItem, customItem = items[1], items[0]
	}

	// Custom items cannot be approved from stock; the stock line still lands
	results, err := env.approval.Approve(context.Background(), res.RequestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items: []service.ItemActionDTO{
			{ItemID: stockItem.ID.String()},
			{ItemID: customItem.ID.String()},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "validation", results[1].ErrorType)

	// One line decided, one still open: the request is not terminal yet
	assert.Equal(t, model.RequestStatusSubmitted, env.loadRequest(t, res.RequestID).Status)

	results, err = env.approval.Approve(context.Background(), res.RequestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: customItem.ID.String(), Decision: model.DecisionApproveForProcurement}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success)
	assert.Equal(t, model.RequestStatusApproved, env.loadRequest(t, res.RequestID).Status)
}

func TestListPendingScopesByLevelAndWing(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	summaries, total, err := env.approval.ListPending(context.Background(), model.RoleSupervisor, env.wing.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, summaries, 1)
	assert.Equal(t, requestID, summaries[0].RequestID)
	assert.Equal(t, 1, summaries[0].PendingItems)

	// Not visible from the other wing
	_, total, err = env.approval.ListPending(context.Background(), model.RoleSupervisor, env.otherWing.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// Not in the admin queue until forwarded
	_, total, err = env.approval.ListPending(context.Background(), model.RoleAdmin, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	_, err = env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "escalating",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)

	_, total, err = env.approval.ListPending(context.Background(), model.RoleAdmin, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestReconstructMatchesProjections(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	_, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ApprovedQuantity: intPtr(4)}},
	})
	require.NoError(t, err)

	item := env.loadItem(t, itemID)
	state, err := env.trail.Reconstruct(context.Background(), item.RequestID, []uuid.UUID{item.ID})
	require.NoError(t, err)

	derived := state.Items[item.ID]
	assert.Equal(t, item.DecisionType, derived.Decision)
	assert.Equal(t, item.CurrentLevel, derived.Level)
	assert.Equal(t, item.Version, derived.Version)
	require.NotNil(t, derived.ApprovedQuantity)
	assert.Equal(t, *item.ApprovedQuantity, *derived.ApprovedQuantity)
	assert.Equal(t, env.loadRequest(t, requestID).Status, state.Status)
}

func TestGetRequestDetailsAnnotatesAvailability(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	details, err := env.approval.GetRequestDetails(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, details.Items, 1)

	detail := details.Items[0]
	assert.Equal(t, itemID, detail.ItemID)
	assert.Equal(t, 0, detail.Version)
	assert.True(t, detail.Availability.IsStockBacked)
	assert.Equal(t, 10, detail.Availability.WingAvailable)
	assert.Equal(t, 100, detail.Availability.AdminAvailable)
	assert.True(t, detail.Availability.CanFulfillWing)
	require.Len(t, details.History, 1)
}
