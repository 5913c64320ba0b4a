package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/syedsanaulhaq/ims-v2-sub002/internal/model"
	"github.com/syedsanaulhaq/ims-v2-sub002/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRequestSeedsTrail(t *testing.T) {
	env := newTestEnv(t)

	requestID, itemID := env.submit(t, 5)

	request := env.loadRequest(t, requestID)
	assert.Equal(t, model.RequestStatusSubmitted, request.Status)
	assert.Equal(t, model.UrgencyNormal, request.UrgencyLevel)

	item := env.loadItem(t, itemID)
	assert.Equal(t, model.DecisionPending, item.DecisionType)
	assert.Equal(t, model.LevelSupervisor, item.CurrentLevel)
	assert.Equal(t, 0, item.Version)

	history, err := env.trail.History(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ActionSubmitted, history[0].Action)
	assert.Equal(t, 1, history[0].Seq)
	assert.Equal(t, env.requester.ID, history[0].ActorID)
}

func TestSubmitRequestCustomItem(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.intake.SubmitRequest(context.Background(), service.SubmitRequestDTO{
		RequestType: model.RequestTypeIndividual,
		RequesterID: env.requester.ID.String(),
		Purpose:     "special equipment",
		Items: []service.SubmitItemDTO{
			{Nomenclature: "Custom tripod mount", IsCustomItem: true, RequestedQuantity: 1},
		},
	})
	require.NoError(t, err)

	var items []model.RequestItem
	require.NoError(t, env.db.Where("request_id = ?", res.RequestID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsCustomItem)
	assert.Nil(t, items[0].ItemMasterID)
}

func TestSubmitRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	noWing := newUser(t, env.db, "wingless", model.RoleRequester, nil)

	valid := func() service.SubmitRequestDTO {
		return service.SubmitRequestDTO{
			RequestType: model.RequestTypeOrganizational,
			RequesterID: env.requester.ID.String(),
			WingID:      env.wing.ID.String(),
			Purpose:     "field exercise",
			Items: []service.SubmitItemDTO{
				{ItemMasterID: env.item.ID.String(), Nomenclature: env.item.Nomenclature, RequestedQuantity: 2},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*service.SubmitRequestDTO)
		field  string
	}{
		{
			name:   "empty purpose",
			mutate: func(dto *service.SubmitRequestDTO) { dto.Purpose = "" },
			field:  "purpose",
		},
		{
			name:   "no items",
			mutate: func(dto *service.SubmitRequestDTO) { dto.Items = nil },
			field:  "items",
		},
		{
			name:   "unknown request type",
			mutate: func(dto *service.SubmitRequestDTO) { dto.RequestType = "Bulk" },
			field:  "request_type",
		},
		{
			name:   "unknown urgency",
			mutate: func(dto *service.SubmitRequestDTO) { dto.UrgencyLevel = "Panic" },
			field:  "urgency_level",
		},
		{
			name:   "unknown requester",
			mutate: func(dto *service.SubmitRequestDTO) { dto.RequesterID = "8b9ee2f3-0000-0000-0000-000000000000" },
			field:  "requester_id",
		},
		{
			name: "organizational without wing",
			mutate: func(dto *service.SubmitRequestDTO) {
				dto.RequesterID = noWing.ID.String()
				dto.WingID = ""
			},
			field: "wing_id",
		},
		{
			// A wing-less request would sit in no supervisor's queue and no
			// scope check would ever admit an approver, so it is refused at
			// the door regardless of request type.
			name: "individual without wing",
			mutate: func(dto *service.SubmitRequestDTO) {
				dto.RequestType = model.RequestTypeIndividual
				dto.RequesterID = noWing.ID.String()
				dto.WingID = ""
			},
			field: "wing_id",
		},
		{
			name:   "zero quantity",
			mutate: func(dto *service.SubmitRequestDTO) { dto.Items[0].RequestedQuantity = 0 },
			field:  "items[0].requested_quantity",
		},
		{
			name: "custom item without nomenclature",
			mutate: func(dto *service.SubmitRequestDTO) {
				dto.Items[0] = service.SubmitItemDTO{IsCustomItem: true, RequestedQuantity: 1}
			},
			field: "items[0].nomenclature",
		},
		{
			name: "stock item with bad catalog id",
			mutate: func(dto *service.SubmitRequestDTO) {
				dto.Items[0].ItemMasterID = "not-a-uuid"
			},
			field: "items[0].item_master_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := valid()
			tt.mutate(&dto)

			_, err := env.intake.SubmitRequest(context.Background(), dto)

			var vErr *service.ValidationError
			require.True(t, errors.As(err, &vErr), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestSubmitRequestDefaultsWingFromRequester(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.intake.SubmitRequest(context.Background(), service.SubmitRequestDTO{
		RequestType: model.RequestTypeIndividual,
		RequesterID: env.requester.ID.String(),
		Purpose:     "replacement gear",
		Items: []service.SubmitItemDTO{
			{ItemMasterID: env.item.ID.String(), Nomenclature: env.item.Nomenclature, RequestedQuantity: 1},
		},
	})
	require.NoError(t, err)

	request := env.loadRequest(t, res.RequestID)
	require.NotNil(t, request.WingID)
	assert.Equal(t, env.wing.ID, *request.WingID)
}
