package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stitchpoint/prodplan-backend/internal/data/repos/orders"
	"github.com/stitchpoint/prodplan-backend/internal/domain"
	"github.com/stitchpoint/prodplan-backend/internal/extract"
	"github.com/stitchpoint/prodplan-backend/internal/platform/dbctx"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// Ingestor persists raw extracted records as independent ProductionOrder
// rows. Every call inserts new rows, no merge or upsert, so re-running a
// job re-inserts its records.
type Ingestor struct {
	log  *logger.Logger
	repo orders.OrderRepo
}

func NewIngestor(log *logger.Logger, repo orders.OrderRepo) *Ingestor {
	return &Ingestor{log: log.With("component", "Ingestor"), repo: repo}
}

// IngestOrders writes one row per record, stamping job id and ingestion
// time. The first failed write aborts the remainder; the returned count
// says how many rows made it in before the error.
func (i *Ingestor) IngestOrders(dbc dbctx.Context, raws []extract.RawOrder, jobID uuid.UUID, sourceFile string) (int, error) {
	now := time.Now().UTC()
	stored := 0
	for idx, raw := range raws {
		order := shapeOrder(raw, jobID, sourceFile, now)
		if _, err := i.repo.Create(dbc, order); err != nil {
			i.log.Error("Order insert failed; aborting remaining writes",
				"job_id", jobID, "record_index", idx, "stored", stored, "error", err)
			return stored, fmt.Errorf("record %d: %w", idx, err)
		}
		stored++
	}
	return stored, nil
}

// shapeOrder validates a raw record field by field against the
// ProductionOrder shape. Values that do not fit (wrong type, bad date,
// unknown key) land in raw_data instead of being trusted.
func shapeOrder(raw extract.RawOrder, jobID uuid.UUID, sourceFile string, now time.Time) *domain.ProductionOrder {
	rawData := map[string]any{}
	if m, ok := raw["raw_data"].(map[string]any); ok {
		for k, v := range m {
			rawData[k] = v
		}
	}

	order := &domain.ProductionOrder{
		ID:         uuid.New(),
		Status:     domain.OrderStatusPending,
		SourceFile: sourceFile,
		JobID:      jobID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for key, value := range raw {
		switch key {
		case "order_id":
			order.OrderID = coerceString(value, key, rawData)
		case "style_code":
			order.StyleCode = coerceString(value, key, rawData)
		case "fabric":
			order.Fabric = coerceString(value, key, rawData)
		case "color":
			order.Color = coerceString(value, key, rawData)
		case "brand":
			order.Brand = coerceString(value, key, rawData)
		case "source_file":
			if s := coerceString(value, key, rawData); s != "" {
				order.SourceFile = s
			}
		case "quantity":
			order.Quantity = coerceQuantity(value, rawData)
		case "status":
			if s, ok := value.(string); ok && domain.ValidOrderStatus(s) {
				order.Status = s
			} else if value != nil {
				rawData["status"] = value
			}
		case "timeline":
			order.Timeline = coerceTimeline(value, rawData)
		case "raw_data":
			// already merged
		default:
			rawData[key] = value
		}
	}

	if order.Timeline == nil {
		order.Timeline = marshalTimeline(domain.Timeline{})
	}
	order.RawData = marshalJSON(rawData)
	return order
}

func coerceString(value any, key string, rawData map[string]any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		rawData[key] = value
		return ""
	}
}

func coerceQuantity(value any, rawData map[string]any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		if v < 0 {
			rawData["quantity"] = value
			return 0
		}
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return n
		}
		rawData["quantity"] = value
		return 0
	default:
		rawData["quantity"] = value
		return 0
	}
}

func coerceTimeline(value any, rawData map[string]any) datatypes.JSON {
	m, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			rawData["timeline"] = value
		}
		return marshalTimeline(domain.Timeline{})
	}

	tl := domain.Timeline{}
	fields := map[string]**string{
		"fabric":   &tl.Fabric,
		"cutting":  &tl.Cutting,
		"sewing":   &tl.Sewing,
		"shipping": &tl.Shipping,
	}
	for key, dst := range fields {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr || !validISODate(s) {
			rawData["timeline."+key] = v
			continue
		}
		*dst = &s
	}
	for key, v := range m {
		if _, known := fields[key]; !known {
			rawData["timeline."+key] = v
		}
	}
	return marshalTimeline(tl)
}

func validISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func marshalTimeline(tl domain.Timeline) datatypes.JSON {
	return marshalJSON(tl)
}

func marshalJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
