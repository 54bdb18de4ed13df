// Package jsonrepair recovers a structured recipe from partial or malformed
// model output. Extract never fails: when nothing parseable remains it falls
// back to a placeholder recipe so callers can always emit a complete result.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/cozyplate/backend/internal/types"
)

var (
	fencedBlockRe    = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*\\})\\s*```")
	fenceMarkerRe    = regexp.MustCompile("(?i)```(?:json)?\\s*")
	jsonLabelRe      = regexp.MustCompile(`(?i)^\s*["']?json["']?\s*:?\s*`)
	trailingCommaRe  = regexp.MustCompile(`,(\s*[}\]])`)
	unclosedValueRe  = regexp.MustCompile(`^(\s*"[^"]*":\s*"[^"]*)(,?)\s*$`)
	recipeObjectRe   = regexp.MustCompile(`"recipe"\s*:\s*\{([^}]*)\}?`)
	ingredientsRe    = regexp.MustCompile(`(?s)"ingredients"\s*:\s*\[(.*?)\]`)
	stepsRe          = regexp.MustCompile(`(?s)"steps"\s*:\s*\[(.*?)\]`)
	stringFieldRes   = map[string]*regexp.Regexp{}
	numericFieldRes  = map[string]*regexp.Regexp{}
	stringFieldNames = []string{"title", "description_md", "yield_text", "cuisine", "difficulty"}
	numberFieldNames = []string{"total_time_min", "active_time_min"}
)

func init() {
	for _, f := range stringFieldNames {
		stringFieldRes[f] = regexp.MustCompile(`(?i)"` + f + `"\s*:\s*"([^"]*)"`)
	}
	for _, f := range numberFieldNames {
		numericFieldRes[f] = regexp.MustCompile(`(?i)"` + f + `"\s*:\s*(\d+)`)
	}
}

// Extract parses accumulated model output into a recipe, repairing truncated
// or fenced JSON along the way. The result is always non-nil and normalized.
func Extract(content string) *types.AnalyzedRecipe {
	content = strings.TrimSpace(content)

	if out, ok := tryParse(content); ok {
		return Normalize(out)
	}

	candidate := extractCandidate(content)
	fixed := closeUnterminatedStrings(candidate)
	fixed = trailingCommaRe.ReplaceAllString(fixed, "$1")
	fixed = balanceDelimiters(fixed)

	if out, ok := tryParse(fixed); ok {
		return Normalize(out)
	}

	return Normalize(recoverFields(fixed))
}

// tryParse decodes into the typed structure. Type mismatches on individual
// fields are tolerated; the decoder fills everything else.
func tryParse(s string) (*types.AnalyzedRecipe, bool) {
	if s == "" || !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var out types.AnalyzedRecipe
	err := json.Unmarshal([]byte(s), &out)
	if err == nil {
		return &out, true
	}
	if _, ok := err.(*json.UnmarshalTypeError); ok {
		return &out, true
	}
	return nil, false
}

// extractCandidate pulls the most plausible JSON object out of surrounding
// prose: a fenced code block first, then the first balanced object span,
// then whatever is left after stripping common prefixes.
func extractCandidate(content string) string {
	if m := fencedBlockRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	if span := balancedObjectSpan(content); span != "" {
		return span
	}

	// Drop everything before the first brace plus stray fence markers.
	if i := strings.IndexByte(content, '{'); i >= 0 {
		content = content[i:]
	}
	content = fenceMarkerRe.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "```", "")
	content = jsonLabelRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// balancedObjectSpan scans for the first top-level {...} span, tracking
// string and escape state so braces inside values do not confuse the count.
// When the input ends mid-object the span runs to the end of the input.
func balancedObjectSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return s[start:]
}

// closeUnterminatedStrings appends a closing quote to lines that open a
// string value and never close it, which happens when a stream is cut off
// mid-value.
func closeUnterminatedStrings(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		m := unclosedValueRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		// The captured group ends inside an open string only when the line
		// holds an odd number of quotes.
		if strings.Count(line, `"`)%2 == 0 {
			continue
		}
		lines[i] = m[1] + `"` + m[2]
	}
	return strings.Join(lines, "\n")
}

// balanceDelimiters appends the closing braces and brackets a truncated
// object is missing. Delimiters inside string values are ignored.
func balanceDelimiters(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// recoverFields is the last resort: pick individual recipe fields and child
// arrays out of unparseable text with regexes.
func recoverFields(s string) *types.AnalyzedRecipe {
	out := &types.AnalyzedRecipe{}
	out.Recipe.Public = true

	scope := s
	if m := recipeObjectRe.FindStringSubmatch(s); m != nil {
		scope = m[1]
	}

	if m := stringFieldRes["title"].FindStringSubmatch(scope); m != nil {
		out.Recipe.Title = m[1]
	}
	if m := stringFieldRes["description_md"].FindStringSubmatch(scope); m != nil {
		v := m[1]
		out.Recipe.DescriptionMD = &v
	}
	if m := stringFieldRes["yield_text"].FindStringSubmatch(scope); m != nil {
		v := m[1]
		out.Recipe.YieldText = &v
	}
	if m := stringFieldRes["cuisine"].FindStringSubmatch(scope); m != nil {
		v := m[1]
		out.Recipe.Cuisine = &v
	}
	if m := stringFieldRes["difficulty"].FindStringSubmatch(scope); m != nil {
		v := m[1]
		out.Recipe.Difficulty = &v
	}
	for field, re := range numericFieldRes {
		m := re.FindStringSubmatch(scope)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch field {
		case "total_time_min":
			out.Recipe.TotalTimeMin = &n
		case "active_time_min":
			out.Recipe.ActiveTimeMin = &n
		}
	}

	if m := ingredientsRe.FindStringSubmatch(s); m != nil {
		var items []types.IngredientDraft
		if json.Unmarshal([]byte("["+m[1]+"]"), &items) == nil {
			out.Ingredients = items
		}
	}
	if m := stepsRe.FindStringSubmatch(s); m != nil {
		var items []types.StepDraft
		if json.Unmarshal([]byte("["+m[1]+"]"), &items) == nil {
			out.Steps = items
		}
	}

	return out
}

// Normalize enforces the invariants every consumer relies on: a title is
// always present, child arrays are never nil, and difficulty is one of the
// known levels or absent.
func Normalize(r *types.AnalyzedRecipe) *types.AnalyzedRecipe {
	if r == nil {
		r = &types.AnalyzedRecipe{}
		r.Recipe.Public = true
	}
	if strings.TrimSpace(r.Recipe.Title) == "" {
		r.Recipe.Title = "Recipe in Progress"
	}
	if r.Recipe.Difficulty != nil {
		switch strings.ToLower(*r.Recipe.Difficulty) {
		case "easy", "medium", "hard":
			lower := strings.ToLower(*r.Recipe.Difficulty)
			r.Recipe.Difficulty = &lower
		default:
			r.Recipe.Difficulty = nil
		}
	}
	if r.Ingredients == nil {
		r.Ingredients = []types.IngredientDraft{}
	}
	if r.Steps == nil {
		r.Steps = []types.StepDraft{}
	}
	if r.Substitutions == nil {
		r.Substitutions = []types.SubstitutionDraft{}
	}
	if r.Images == nil {
		r.Images = []types.ImageDraft{}
	}
	return r
}
