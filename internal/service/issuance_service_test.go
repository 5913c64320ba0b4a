package service_test

import (
	"context"
	"testing"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approveFromStock(t *testing.T, env *testEnv, requestID, itemID string, qty int) {
	t.Helper()
	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, ApprovedQuantity: intPtr(qty)}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)
}

func TestIssueStockDeductsPoolAndJournals(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 3)

	result, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalQuantity)
	assert.Equal(t, "376.5000", result.TotalValue) // 3 x 125.50
	require.Len(t, result.Allocations, 1)
	assert.Equal(t, itemID, result.Allocations[0].RequestItemID)
	assert.Equal(t, "125.5000", result.Allocations[0].UnitPrice)

	// Supervisor approved, so the wing pool pays
	assert.Equal(t, 7, env.poolQty(t, &env.wing.ID))
	assert.Equal(t, 100, env.poolQty(t, nil))

	var logs []model.InventoryLog
	require.NoError(t, env.db.Where("item_master_id = ?", env.item.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.LogTypeDeduction, logs[0].LogType)
	assert.Equal(t, 10, logs[0].QuantityBefore)
	assert.Equal(t, 7, logs[0].QuantityAfter)
	assert.Equal(t, -3, logs[0].QuantityChanged)

	item := env.loadItem(t, itemID)
	assert.Equal(t, 3, item.IssuedQuantity)
}

func TestIssueStockAdminApprovalPaysFromAdminPool(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 20)

	_, err := env.approval.Forward(context.Background(), requestID, service.BatchActionDTO{
		ActorID:    env.supervisor.ID.String(),
		Reason:     "wing pool short",
		TargetRole: model.RoleAdmin,
		Items:      []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)

	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.admin.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success, "unexpected failure: %s", results[0].Error)

	_, err = env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, env.poolQty(t, &env.wing.ID))
	assert.Equal(t, 80, env.poolQty(t, nil))
}

func TestIssueStockIsIdempotentPerItem(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 3)

	_, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	require.NoError(t, err)

	// Nothing left to issue on the second run
	_, err = env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	var iErr *service.InvalidStateError
	require.ErrorAs(t, err, &iErr)

	assert.Equal(t, 7, env.poolQty(t, &env.wing.ID))
}

func TestIssueStockSkipsProcurementItems(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)

	results, err := env.approval.Approve(context.Background(), requestID, service.BatchActionDTO{
		ActorID: env.supervisor.ID.String(),
		Items:   []service.ItemActionDTO{{ItemID: itemID, Decision: model.DecisionApproveForProcurement}},
	})
	require.NoError(t, err)
	require.True(t, results[0].Success)

	_, err = env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	var iErr *service.InvalidStateError
	require.ErrorAs(t, err, &iErr)
	assert.Equal(t, 10, env.poolQty(t, &env.wing.ID))
}

func TestIssueStockSkipsItemClaimedByAnotherIssuance(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 3)

	// Another issuance already claimed the item; the locked re-read inside
	// the transaction must see it and refuse to deduct again.
	require.NoError(t, env.db.Model(&model.RequestItem{}).
		Where("id = ?", itemID).
		Update("issued_quantity", 3).Error)

	_, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	var iErr *service.InvalidStateError
	require.ErrorAs(t, err, &iErr)

	assert.Equal(t, 10, env.poolQty(t, &env.wing.ID))
	var logCount int64
	env.db.Model(&model.InventoryLog{}).Count(&logCount)
	assert.EqualValues(t, 0, logCount)
}

func TestIssueStockRequiresKeeperRole(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 3)

	_, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.supervisor.ID.String(),
	})
	var pErr *service.PermissionScopeError
	require.ErrorAs(t, err, &pErr)
}

func TestIssueStockRollsBackWhenPoolRanDry(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 5)

	// Stock vanished between approval and issuance
	env.setPool(t, &env.wing.ID, 2)

	_, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	var sErr *service.InsufficientStockError
	require.ErrorAs(t, err, &sErr)

	// Whole transaction rolled back: no partial deduction, no log, no issue
	assert.Equal(t, 2, env.poolQty(t, &env.wing.ID))
	var logCount int64
	env.db.Model(&model.InventoryLog{}).Count(&logCount)
	assert.EqualValues(t, 0, logCount)
	assert.Equal(t, 0, env.loadItem(t, itemID).IssuedQuantity)
}

func TestListTransactions(t *testing.T) {
	env := newTestEnv(t)
	requestID, itemID := env.submit(t, 5)
	approveFromStock(t, env, requestID, itemID, 2)

	issued, err := env.issuance.IssueStock(context.Background(), requestID, service.IssueStockDTO{
		IssuedBy: env.keeper.ID.String(),
	})
	require.NoError(t, err)

	transactions, err := env.issuance.ListTransactions(context.Background(), requestID)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, issued.TransactionID, transactions[0].TransactionID)
	require.Len(t, transactions[0].Allocations, 1)
}
