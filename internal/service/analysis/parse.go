package analysis

import (
	"encoding/json"
	"strings"

	analysismodel "github.com/lexhq/lex-backend/internal/model/analysis"
)

const decodeFailureSummary = "The analysis response could not be decoded. The raw model output is attached."

// ParseResult decodes analyzer output into the Analysis contract. Models
// occasionally wrap the JSON in prose or code fences, so decoding targets the
// outermost object in the text. Anything undecodable becomes a degraded
// result preserving the raw text.
func ParseResult(content string) analysismodel.Result {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end <= start {
		return degraded(content)
	}

	var parsed analysismodel.Analysis
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return degraded(content)
	}
	if parsed.RedFlags == nil {
		parsed.RedFlags = []analysismodel.RedFlag{}
	}
	for i := range parsed.RedFlags {
		if strings.TrimSpace(parsed.RedFlags[i].ContextSource) == "" {
			parsed.RedFlags[i].ContextSource = analysismodel.GeneralConcern
		}
	}
	return analysismodel.Result{Analysis: &parsed}
}

func degraded(raw string) analysismodel.Result {
	return analysismodel.Result{Degraded: &analysismodel.Degraded{
		Summary: decodeFailureSummary,
		Raw:     raw,
	}}
}
