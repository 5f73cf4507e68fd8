package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, name, role string) *model.Principal {
	t.Helper()
	u, err := CreateUser(context.Background(), database, name, "hash", role)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return model.PrincipalFromUser(u)
}

func mustItem(t *testing.T, database *sql.DB, qr, name string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, ItemInput{QRCode: qr, Name: name})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func mustTrip(t *testing.T, database *sql.DB, createdBy *model.Principal) *model.Trip {
	t.Helper()
	trip, err := CreateTrip(context.Background(), database, TripInput{
		Name:      "Triglav",
		StartDate: "2024-07-01",
		EndDate:   "2024-07-05",
		Location:  "Julian Alps",
	}, createdBy.ActorID())
	if err != nil {
		t.Fatalf("CreateTrip: %v", err)
	}
	return trip
}

func errCode(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func countRows(t *testing.T, database *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := database.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("counting: %v", err)
	}
	return n
}
