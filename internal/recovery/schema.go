package recovery

import "github.com/santhosh-tekuri/jsonschema/v5"

// candidateSchema is the shape accepted from the extraction model.
// Per-row fields stay loose; the normalizer owns their defaults.
var candidateSchema = jsonschema.MustCompileString("candidate.json", `{
  "type": "object",
  "required": ["transactions"],
  "properties": {
    "transactions": {
      "type": "array",
      "items": {"type": "object"}
    },
    "bankName": {"type": ["string", "null"]}
  }
}`)
