package extract

import (
	"context"
	"encoding/json"

	"github.com/stitchpoint/prodplan-backend/internal/clients/openai"
	"github.com/stitchpoint/prodplan-backend/internal/platform/apperr"
	"github.com/stitchpoint/prodplan-backend/internal/platform/logger"
)

// RawOrder is one extracted record as the model produced it. Nothing is
// schema-validated at this stage; unknown and missing fields pass through
// for the ingestion step to sort out.
type RawOrder map[string]any

type extractionPayload struct {
	Orders []RawOrder `json:"orders"`
}

// Extractor turns tabular text into raw order records via one completion
// call per file. Only the well-formedness of the response is enforced here;
// the semantic accuracy of the model's mapping choices is not verified.
type Extractor struct {
	log *logger.Logger
	llm openai.Client
}

func NewExtractor(log *logger.Logger, llm openai.Client) *Extractor {
	return &Extractor{log: log.With("component", "Extractor"), llm: llm}
}

func (e *Extractor) ExtractOrders(ctx context.Context, csvData, originalFilename string) ([]RawOrder, error) {
	prompt := buildPrompt(csvData, originalFilename)

	response, err := e.llm.GenerateText(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, &apperr.ExtractionServiceError{Err: err}
	}

	e.log.Debug("Model response received", "filename", originalFilename, "response_len", len(response))

	recovered := RecoverJSON(response)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(recovered), &payload); err != nil {
		e.log.Error("JSON parsing failed for model response", "filename", originalFilename, "error", err)
		return nil, &apperr.ExtractionParseError{RawResponse: response, Err: err}
	}

	return payload.Orders, nil
}
