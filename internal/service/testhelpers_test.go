package service_test

import (
	"context"
	"testing"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/database"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/repository"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled connection to :memory: would see an empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// testEnv wires the full service stack over an in-memory database with one
// wing, the four workflow actors and one stocked catalog item.
type testEnv struct {
	db           *gorm.DB
	intake       service.IntakeService
	approval     service.ApprovalService
	verification service.VerificationService
	issuance     service.IssuanceService
	trail        service.TrailService
	stocks       service.StockService

	wing       model.Wing
	otherWing  model.Wing
	requester  model.User
	supervisor model.User
	outsider   model.User // supervisor of the other wing
	admin      model.User
	keeper     model.User
	item       model.ItemMaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	stockRepo := repository.NewStockRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)

	stocks := service.NewStockService(stockRepo)

	env := &testEnv{
		db:           db,
		intake:       service.NewIntakeService(txm, requestRepo, auditRepo, userRepo, nil),
		approval:     service.NewApprovalService(txm, requestRepo, auditRepo, userRepo, stocks, nil),
		verification: service.NewVerificationService(txm, verificationRepo, requestRepo, auditRepo, userRepo, stocks, nil),
		issuance:     service.NewIssuanceService(db, txm, requestRepo, stockRepo, userRepo, nil),
		trail:        service.NewTrailService(auditRepo),
		stocks:       stocks,
	}

	env.wing = model.Wing{Name: "Logistics Wing", OfficeName: "HQ"}
	require.NoError(t, db.Create(&env.wing).Error)
	env.otherWing = model.Wing{Name: "Signals Wing", OfficeName: "HQ"}
	require.NoError(t, db.Create(&env.otherWing).Error)

	env.requester = newUser(t, db, "clerk", model.RoleRequester, &env.wing.ID)
	env.supervisor = newUser(t, db, "supervisor", model.RoleSupervisor, &env.wing.ID)
	env.outsider = newUser(t, db, "outsider", model.RoleSupervisor, &env.otherWing.ID)
	env.admin = newUser(t, db, "admin", model.RoleAdmin, nil)
	env.keeper = newUser(t, db, "keeper", model.RoleStoreKeeper, nil)

	env.item = model.ItemMaster{
		ItemCode:     "RAD-001",
		Nomenclature: "Field Radio",
		Unit:         "EA",
		UnitPrice:    decimal.NewFromFloat(125.50),
		Status:       model.ItemStatusActive,
	}
	require.NoError(t, db.Create(&env.item).Error)

	env.setPool(t, &env.wing.ID, 10)
	env.setPool(t, nil, 100)

	return env
}

func newUser(t *testing.T, db *gorm.DB, name, role string, wingID *uuid.UUID) model.User {
	t.Helper()
	user := model.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		WingID:   wingID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// setPool creates or resets a stock pool row for the catalog item
func (env *testEnv) setPool(t *testing.T, wingID *uuid.UUID, qty int) {
	t.Helper()
	var pool model.InventoryStock
	query := env.db.Where("item_master_id = ?", env.item.ID)
	if wingID == nil {
		query = query.Where("wing_id IS NULL")
	} else {
		query = query.Where("wing_id = ?", *wingID)
	}
	if err := query.First(&pool).Error; err != nil {
		pool = model.InventoryStock{ItemMasterID: env.item.ID, WingID: wingID, MinimumStockLevel: 2}
	}
	pool.AvailableQuantity = qty
	require.NoError(t, env.db.Save(&pool).Error)
}

func (env *testEnv) poolQty(t *testing.T, wingID *uuid.UUID) int {
	t.Helper()
	var pool model.InventoryStock
	query := env.db.Where("item_master_id = ?", env.item.ID)
	if wingID == nil {
		query = query.Where("wing_id IS NULL")
	} else {
		query = query.Where("wing_id = ?", *wingID)
	}
	require.NoError(t, query.First(&pool).Error)
	return pool.AvailableQuantity
}

// submit creates a stock-backed single-item request and returns its ids
func (env *testEnv) submit(t *testing.T, qty int) (requestID, itemID string) {
	t.Helper()
	res, err := env.intake.SubmitRequest(context.Background(), service.SubmitRequestDTO{
		RequestType: model.RequestTypeOrganizational,
		RequesterID: env.requester.ID.String(),
		WingID:      env.wing.ID.String(),
		Purpose:     "field exercise",
		Items: []service.SubmitItemDTO{
			{ItemMasterID: env.item.ID.String(), Nomenclature: env.item.Nomenclature, RequestedQuantity: qty},
		},
	})
	require.NoError(t, err)

	var items []model.RequestItem
	require.NoError(t, env.db.Where("request_id = ?", res.RequestID).Find(&items).Error)
	require.Len(t, items, 1)
	return res.RequestID, items[0].ID.String()
}

func (env *testEnv) loadItem(t *testing.T, itemID string) model.RequestItem {
	t.Helper()
	var item model.RequestItem
	require.NoError(t, env.db.First(&item, "id = ?", itemID).Error)
	return item
}

func (env *testEnv) loadRequest(t *testing.T, requestID string) model.IssuanceRequest {
	t.Helper()
	var req model.IssuanceRequest
	require.NoError(t, env.db.First(&req, "id = ?", requestID).Error)
	return req
}

func intPtr(v int) *int { return &v }
