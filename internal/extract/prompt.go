package extract

import "fmt"

const systemPrompt = "You are an expert at parsing production planning data."

// buildPrompt renders the fixed instruction template. The column-to-field
// mapping is delegated to the model: the normalization rules below are the
// full contract, there is no deterministic mapping table.
func buildPrompt(csvData, originalFilename string) string {
	return fmt.Sprintf(`Given the following CSV data from an Excel sheet, extract production order information.

CSV Data:
%s

Analyze this data and return ONLY a JSON object of production orders with this exact structure:
{
  "orders": [
    {
      "order_id": "string",
      "style_code": "string or null",
      "fabric": "string or null",
      "color": "string or null",
      "quantity": number,
      "status": "pending",
      "timeline": {
        "fabric": "YYYY-MM-DD or null",
        "cutting": "YYYY-MM-DD or null",
        "sewing": "YYYY-MM-DD or null",
        "shipping": "YYYY-MM-DD or null"
      },
      "brand": "string or null",
      "source_file": %q,
      "raw_data": {}
    }
  ]
}

Rules:
- Extract all production orders/line items from the data
- Convert any dates to YYYY-MM-DD format
- Use "pending" as default status
- Extract quantities as numbers
- Map columns intelligently (e.g., "PO", "Order", "SO" could be order_id)
- For timeline dates, look for columns containing "fabric", "cut", "sew", "ship", "delivery" etc.
- Return valid JSON only, no explanations`, csvData, originalFilename)
}
