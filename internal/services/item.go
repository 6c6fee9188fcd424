package services

import (
	"encoding/json"
	"time"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// ItemView is the API shape of a stored production order. Field names
// follow what the frontend consumes, not the storage columns.
type ItemView struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Style       string          `json:"style"`
	Fabric      string          `json:"fabric"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	Status      string          `json:"status"`
	Dates       domain.Timeline `json:"dates"`
	Brand       string          `json:"brand"`
	SourceFile  string          `json:"source_file"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

type ItemPage struct {
	Items []ItemView `json:"items"`
	Total int64      `json:"total"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
}

type ItemService interface {
	List(dbc dbctx.Context, filter orders.ListFilter) (*ItemPage, error)
	// Get and Delete accept either a stored item id (uuid) or an order_id
	// value; a valid uuid is only ever matched against the primary key.
	Get(dbc dbctx.Context, idOrOrderID string) (*ItemView, error)
	Delete(dbc dbctx.Context, idOrOrderID string) (*ItemView, error)
}

type itemService struct {
	log  *logger.Logger
	repo orders.OrderRepo
}

func NewItemService(log *logger.Logger, repo orders.OrderRepo) ItemService {
	return &itemService{log: log.With("service", "ItemService"), repo: repo}
}

func (s *itemService) List(dbc dbctx.Context, filter orders.ListFilter) (*ItemPage, error) {
	rows, total, err := s.repo.List(dbc, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		items = append(items, itemView(row, false))
	}
	return &ItemPage{Items: items, Total: total, Skip: filter.Skip, Limit: filter.Limit}, nil
}

func (s *itemService) Get(dbc dbctx.Context, idOrOrderID string) (*ItemView, error) {
	row, err := s.repo.GetByIDOrOrderID(dbc, idOrOrderID)
	if err != nil {
		return nil, err
	}
	v := itemView(row, true)
	return &v, nil
}

func (s *itemService) Delete(dbc dbctx.Context, idOrOrderID string) (*ItemView, error) {
	row, err := s.repo.DeleteByIDOrOrderID(dbc, idOrOrderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("Production item deleted", "item_id", row.ID, "order_id", row.OrderID)
	v := itemView(row, true)
	return &v, nil
}

func itemView(row *domain.ProductionOrder, withUpdated bool) ItemView {
	var dates domain.Timeline
	if len(row.Timeline) > 0 {
		_ = json.Unmarshal(row.Timeline, &dates)
	}
	v := ItemView{
		ID:          row.ID.String(),
		OrderNumber: row.OrderID,
		Style:       row.StyleCode,
		Fabric:      row.Fabric,
		Color:       row.Color,
		Quantity:    row.Quantity,
		Status:      row.Status,
		Dates:       dates,
		Brand:       row.Brand,
		SourceFile:  row.SourceFile,
		CreatedAt:   row.CreatedAt,
	}
	if withUpdated {
		u := row.UpdatedAt
		v.UpdatedAt = &u
	}
	return v
}
