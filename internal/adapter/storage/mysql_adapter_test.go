package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rl1809/supplydesk/internal/core/domain"
)

func getMySQLAdapter(t *testing.T) *SQLAdapter {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/supplydesk"
	}

	adapter, err := OpenMySQL(dsn, 10)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := adapter.Migrate(context.Background()); err != nil {
		adapter.Close()
		t.Fatalf("migrate: %v", err)
	}
	return adapter
}

func TestMySQLAdapter_Contract(t *testing.T) {
	adapter := getMySQLAdapter(t)
	defer adapter.Close()

	runRepositoryContract(t, adapter)
}

func TestMySQLAdapter_TimestampsRoundTripInUTC(t *testing.T) {
	adapter := getMySQLAdapter(t)
	defer adapter.Close()

	ctx := context.Background()
	user, err := adapter.EnsureUser(ctx, "mysql-ts-"+time.Now().Format("20060102150405.000000"), domain.RoleSupport)
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	at := time.Date(2024, 12, 31, 23, 59, 59, 123456000, time.UTC)
	req, err := adapter.CreateRequest(ctx, domain.Request{
		SubmitterID:   user.ID,
		SubmitterRole: domain.RoleSupport,
		Message:       "Late delivery complaint",
		Tag:           domain.TagCustomerComplaint,
		Status:        domain.StatusSubmitted,
		SubmittedAt:   at,
	}, domain.StatusLogEntry{Status: string(domain.StatusSubmitted), Timestamp: at})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	got, err := adapter.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if !got.SubmittedAt.Equal(at) {
		t.Errorf("expected submitted time %v, got %v", at, got.SubmittedAt)
	}
	if got.SubmittedAt.Location() != time.UTC {
		t.Errorf("expected UTC, got %v", got.SubmittedAt.Location())
	}
}
