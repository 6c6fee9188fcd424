package orders

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// ListFilter narrows List results. Style is a case-insensitive substring
// match on style_code; Status is an exact match on the status enum.
type ListFilter struct {
	Skip   int
	Limit  int
	Style  string
	Status string
}

type OrderRepo interface {
	Create(dbc dbctx.Context, order *domain.ProductionOrder) (*domain.ProductionOrder, error)
	List(dbc dbctx.Context, filter ListFilter) ([]*domain.ProductionOrder, int64, error)
	// GetByIDOrOrderID resolves an identifier that is either the storage-native
	// uuid or the human-facing order_id. A syntactically valid uuid is only
	// looked up by primary key; anything else falls back to order_id.
	GetByIDOrOrderID(dbc dbctx.Context, idOrOrderID string) (*domain.ProductionOrder, error)
	DeleteByIDOrOrderID(dbc dbctx.Context, idOrOrderID string) (*domain.ProductionOrder, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (r *orderRepo) handle(dbc dbctx.Context) *gorm.DB {
	tx := dbc.Tx
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(dbc.Ctx)
}

func (r *orderRepo) Create(dbc dbctx.Context, order *domain.ProductionOrder) (*domain.ProductionOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.handle(dbc).Create(order).Error; err != nil {
		return nil, &apperr.StoreError{Op: "insert order", Err: err}
	}
	return order, nil
}

// escapeLike neutralizes LIKE metacharacters in a user-supplied value so
// the filter matches them literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *orderRepo) applyFilter(q *gorm.DB, filter ListFilter) *gorm.DB {
	if s := strings.TrimSpace(filter.Style); s != "" {
		q = q.Where(`LOWER(style_code) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if s := strings.TrimSpace(filter.Status); s != "" {
		q = q.Where("status = ?", s)
	}
	return q
}

func (r *orderRepo) List(dbc dbctx.Context, filter ListFilter) ([]*domain.ProductionOrder, int64, error) {
	var total int64
	if err := r.applyFilter(r.handle(dbc).Model(&domain.ProductionOrder{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, &apperr.StoreError{Op: "count orders", Err: err}
	}

	// Pages follow insertion order; the id tiebreak keeps skip/limit stable
	// when rows share a timestamp.
	q := r.applyFilter(r.handle(dbc), filter).Order("created_at, id")
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var results []*domain.ProductionOrder
	if err := q.Find(&results).Error; err != nil {
		return nil, 0, &apperr.StoreError{Op: "list orders", Err: err}
	}
	return results, total, nil
}

func (r *orderRepo) lookup(dbc dbctx.Context, idOrOrderID string) *gorm.DB {
	if id, err := uuid.Parse(idOrOrderID); err == nil {
		return r.handle(dbc).Where("id = ?", id)
	}
	return r.handle(dbc).Where("order_id = ?", idOrOrderID)
}

func (r *orderRepo) GetByIDOrOrderID(dbc dbctx.Context, idOrOrderID string) (*domain.ProductionOrder, error) {
	var order domain.ProductionOrder
	if err := r.lookup(dbc, idOrOrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, &apperr.StoreError{Op: "get order", Err: err}
	}
	return &order, nil
}

func (r *orderRepo) DeleteByIDOrOrderID(dbc dbctx.Context, idOrOrderID string) (*domain.ProductionOrder, error) {
	order, err := r.GetByIDOrOrderID(dbc, idOrOrderID)
	if err != nil {
		return nil, err
	}
	if err := r.handle(dbc).Delete(&domain.ProductionOrder{}, "id = ?", order.ID).Error; err != nil {
		return nil, &apperr.StoreError{Op: "delete order", Err: err}
	}
	return order, nil
}
