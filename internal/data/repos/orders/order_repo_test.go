package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/testutil"
	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
)

func seedOrder(t *testing.T, repo OrderRepo, dbc dbctx.Context, orderID, style, status string) *domain.ProductionOrder {
	t.Helper()
	o := &domain.ProductionOrder{
		ID:        uuid.New(),
		OrderID:   orderID,
		StyleCode: style,
		Quantity:  10,
		Status:    status,
		Timeline:  datatypes.JSON([]byte(`{"fabric":null,"cutting":null,"sewing":null,"shipping":null}`)),
		RawData:   datatypes.JSON([]byte(`{}`)),
		JobID:     uuid.New(),
	}
	created, err := repo.Create(dbc, o)
	if err != nil {
		t.Fatalf("seed order %s: %v", orderID, err)
	}
	return created
}

func TestOrderRepoListFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	seedOrder(t, repo, dbc, "PO-1", "STYLE-ABC", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-2", "style-abd", domain.OrderStatusCompleted)
	seedOrder(t, repo, dbc, "PO-3", "OTHER", domain.OrderStatusCompleted)

	rows, total, err := repo.List(dbc, ListFilter{Limit: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("List no filters: want total=3 len=3 got total=%d len=%d", total, len(rows))
	}

	// style substring match is case-insensitive
	rows, total, err = repo.List(dbc, ListFilter{Limit: 100, Style: "ab"})
	if err != nil {
		t.Fatalf("List style filter: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("List style=ab: want total=2 got total=%d len=%d", total, len(rows))
	}

	// status match is exact
	rows, total, err = repo.List(dbc, ListFilter{Limit: 100, Status: domain.OrderStatusCompleted})
	if err != nil {
		t.Fatalf("List status filter: %v", err)
	}
	if total != 2 {
		t.Fatalf("List status=completed: want total=2 got total=%d", total)
	}
	for _, r := range rows {
		if r.Status != domain.OrderStatusCompleted {
			t.Fatalf("List status=completed returned status=%q", r.Status)
		}
	}

	rows, total, err = repo.List(dbc, ListFilter{Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("List paging: %v", err)
	}
	if total != 3 || len(rows) != 1 {
		t.Fatalf("List skip=1 limit=1: want total=3 len=1 got total=%d len=%d", total, len(rows))
	}
}

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc", "abc"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`a\b`, `a\\b`},
	}
	for _, c := range cases {
		if got := escapeLike(c.in); got != c.want {
			t.Fatalf("escapeLike(%q): want=%q got=%q", c.in, c.want, got)
		}
	}
}

func TestOrderRepoStyleFilterMatchesWildcardsLiterally(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	seedOrder(t, repo, dbc, "PO-1", "STYLE-100%", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-2", "STYLE-200", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-3", "STYLE_3", domain.OrderStatusPending)

	rows, total, err := repo.List(dbc, ListFilter{Limit: 100, Style: "100%"})
	if err != nil {
		t.Fatalf("List style=100%%: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].StyleCode != "STYLE-100%" {
		t.Fatalf("style=100%%: want the one literal match got total=%d rows=%d", total, len(rows))
	}

	// An underscore matches itself, not any single character.
	rows, total, err = repo.List(dbc, ListFilter{Limit: 100, Style: "E_3"})
	if err != nil {
		t.Fatalf("List style=E_3: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].StyleCode != "STYLE_3" {
		t.Fatalf("style=E_3: want the one literal match got total=%d rows=%d", total, len(rows))
	}
}

func TestOrderRepoPagingIsStable(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	seedOrder(t, repo, dbc, "PO-1", "S", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-2", "S", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-3", "S", domain.OrderStatusPending)

	full, _, err := repo.List(dbc, ListFilter{Limit: 3})
	if err != nil {
		t.Fatalf("List full page: %v", err)
	}
	if len(full) != 3 {
		t.Fatalf("full page: want=3 got=%d", len(full))
	}

	// Walking the same data one row at a time yields the same sequence.
	for skip := 0; skip < 3; skip++ {
		page, _, err := repo.List(dbc, ListFilter{Skip: skip, Limit: 1})
		if err != nil {
			t.Fatalf("List skip=%d: %v", skip, err)
		}
		if len(page) != 1 || page[0].ID != full[skip].ID {
			t.Fatalf("skip=%d: want row %s got %v", skip, full[skip].ID, page)
		}
	}
}

func TestOrderRepoLookupRule(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	o := seedOrder(t, repo, dbc, "PO-77", "S", domain.OrderStatusPending)

	byID, err := repo.GetByIDOrOrderID(dbc, o.ID.String())
	if err != nil || byID.ID != o.ID {
		t.Fatalf("GetByIDOrOrderID by uuid: err=%v", err)
	}

	byOrderID, err := repo.GetByIDOrOrderID(dbc, "PO-77")
	if err != nil || byOrderID.ID != o.ID {
		t.Fatalf("GetByIDOrOrderID by order_id: err=%v", err)
	}

	// A valid uuid that matches nothing does not fall back to order_id.
	if _, err := repo.GetByIDOrOrderID(dbc, uuid.New().String()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetByIDOrOrderID unknown uuid: want ErrNotFound got %v", err)
	}
	if _, err := repo.GetByIDOrOrderID(dbc, "NO-SUCH"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetByIDOrOrderID unknown order_id: want ErrNotFound got %v", err)
	}
}

func TestOrderRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	o := seedOrder(t, repo, dbc, "PO-9", "S", domain.OrderStatusPending)

	deleted, err := repo.DeleteByIDOrOrderID(dbc, "PO-9")
	if err != nil || deleted.ID != o.ID {
		t.Fatalf("DeleteByIDOrOrderID: err=%v", err)
	}

	// Deletion is permanent; a second delete reports NotFound, not success.
	if _, err := repo.DeleteByIDOrOrderID(dbc, "PO-9"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound got %v", err)
	}
}

func TestOrderRepoDuplicateOrderIDsAllowed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrderRepo(db, testutil.Logger(t))

	seedOrder(t, repo, dbc, "PO-DUP", "S", domain.OrderStatusPending)
	seedOrder(t, repo, dbc, "PO-DUP", "S", domain.OrderStatusPending)

	_, total, err := repo.List(dbc, ListFilter{Limit: 100})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Fatalf("duplicate order_id rows: want total=2 got total=%d", total)
	}
}
