package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

var (
	admin = &model.Principal{ID: "admin-1", Name: "Admin", Role: model.RoleAdmin}
	user  = &model.Principal{ID: "user-1", Name: "User", Role: model.RoleUser}
)

var allStatuses = []string{
	model.TripItemTaken, model.TripItemReturned, model.TripItemLost, model.TripItemNotFound,
}

func tripItem(status string) *model.TripItem {
	return &model.TripItem{ID: "ti", TripID: "t", ItemID: "i", Status: status, NotesWhenAdded: "packed by Ana"}
}

func code(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	return appErr.Code
}

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]string]bool{
		{model.TripItemTaken, model.TripItemReturned}:    true,
		{model.TripItemTaken, model.TripItemLost}:        true,
		{model.TripItemTaken, model.TripItemNotFound}:    true,
		{model.TripItemNotFound, model.TripItemReturned}: true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[[2]string{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestPrecheckOrder(t *testing.T) {
	tests := []struct {
		name string
		p    *model.Principal
		req  Request
		code string
	}{
		{"unknown status", admin, Request{Status: "packed"}, apperr.CodeInvalidStatus},
		{"taken is not a resolution", admin, Request{Status: model.TripItemTaken, QRCode: "QR"}, apperr.CodeInvalidStatus},
		{"returned without qr", admin, Request{Status: model.TripItemReturned}, apperr.CodeQRCodeRequired},
		{"user marks lost", user, Request{Status: model.TripItemLost}, apperr.CodeUnauthorized},
		{"user marks not found", user, Request{Status: model.TripItemNotFound}, apperr.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, code(t, Precheck(tt.p, tt.req)))
		})
	}

	assert.NoError(t, Precheck(user, Request{Status: model.TripItemReturned, QRCode: "QR"}))
	assert.NoError(t, Precheck(admin, Request{Status: model.TripItemLost}))
	assert.NoError(t, Precheck(model.SuperAdmin(), Request{Status: model.TripItemNotFound}))
}

func TestCheckItemNotInTrip(t *testing.T) {
	err := Check(nil, "QR", Request{Status: model.TripItemReturned, QRCode: "QR"})
	assert.ErrorIs(t, err, apperr.ErrItemNotInTrip)
}

func TestReturnedRequiresMatchingQRForEveryRole(t *testing.T) {
	for _, p := range []*model.Principal{user, admin, model.SuperAdmin()} {
		for _, from := range allStatuses {
			ti := tripItem(from)
			for _, qr := range []string{"", "WRONG"} {
				err := Resolve(ti, "QR-1", p, Request{Status: model.TripItemReturned, QRCode: qr}, time.Now())
				require.Error(t, err)
				assert.Equal(t, from, ti.Status)
				assert.Nil(t, ti.ReturnedAt)
			}
		}
	}
}

func TestLostIsTerminal(t *testing.T) {
	for _, to := range []string{model.TripItemReturned, model.TripItemLost, model.TripItemNotFound} {
		ti := tripItem(model.TripItemLost)
		err := Check(ti, "QR-1", Request{Status: to, QRCode: "QR-1"})
		assert.Equal(t, apperr.CodeInvalidStatusTransition, code(t, err))

		var appErr *apperr.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, TransitionDetails{CurrentStatus: model.TripItemLost, RequestedStatus: to}, appErr.Details)
		assert.Equal(t, 400, appErr.Status())
	}
}

func TestNotFoundTransitions(t *testing.T) {
	ti := tripItem(model.TripItemNotFound)
	err := Resolve(ti, "QR-1", admin, Request{Status: model.TripItemLost}, time.Now())
	assert.Equal(t, apperr.CodeInvalidStatusTransition, code(t, err))

	err = Resolve(ti, "QR-1", user, Request{Status: model.TripItemReturned, QRCode: "QR-2"}, time.Now())
	assert.ErrorIs(t, err, apperr.ErrQRCodeMismatch)
	assert.Equal(t, model.TripItemNotFound, ti.Status)

	err = Resolve(ti, "QR-1", user, Request{Status: model.TripItemReturned, QRCode: "QR-1"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.TripItemReturned, ti.Status)
}

func TestApplyReturned(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	ti := tripItem(model.TripItemTaken)

	err := Resolve(ti, "QR-1", user, Request{Status: model.TripItemReturned, QRCode: "QR-1", Notes: "dry"}, now)
	require.NoError(t, err)

	assert.Equal(t, model.TripItemReturned, ti.Status)
	require.NotNil(t, ti.ReturnedAt)
	assert.Equal(t, now, *ti.ReturnedAt)
	require.NotNil(t, ti.ReturnedBy)
	assert.Equal(t, "user-1", *ti.ReturnedBy)
	assert.Equal(t, "dry", ti.NotesWhenReturned)
	assert.Equal(t, "packed by Ana", ti.NotesWhenAdded)
}

func TestApplyReturnedBySuperAdmin(t *testing.T) {
	ti := tripItem(model.TripItemTaken)
	require.NoError(t, Resolve(ti, "QR-1", model.SuperAdmin(), Request{Status: model.TripItemReturned, QRCode: "QR-1"}, time.Now()))
	assert.NotNil(t, ti.ReturnedAt)
	assert.Nil(t, ti.ReturnedBy)
	assert.Empty(t, ti.NotesWhenReturned)
}

func TestApplyLostLeavesReturnFieldsEmpty(t *testing.T) {
	ti := tripItem(model.TripItemTaken)
	require.NoError(t, Resolve(ti, "QR-1", admin, Request{Status: model.TripItemLost, Notes: "left at camp"}, time.Now()))
	assert.Equal(t, model.TripItemLost, ti.Status)
	assert.Nil(t, ti.ReturnedAt)
	assert.Nil(t, ti.ReturnedBy)
	assert.Equal(t, "left at camp", ti.NotesWhenReturned)
}

func TestLostWithWrongQRIsMismatch(t *testing.T) {
	ti := tripItem(model.TripItemTaken)
	err := Resolve(ti, "QR-1", admin, Request{Status: model.TripItemLost, QRCode: "QR-9"}, time.Now())
	assert.ErrorIs(t, err, apperr.ErrQRCodeMismatch)
}
