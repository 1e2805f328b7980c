// Package review asks a vision model whether the polygons drawn on an overlay
// image sit on the objects they are meant to outline.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/menta2k/region-augment/pkg/client"
	"github.com/menta2k/region-augment/pkg/types"
)

// DefaultPrompt is the default prompt for overlay review
const DefaultPrompt = `You are checking image annotations.

The image shows a photo with one or more semi-transparent coloured polygons drawn on top.
Each polygon should tightly outline one object.

Return JSON only:
{
  "aligned": true,
  "score": 0.0,
  "issues": ["short issue", "..."],
  "summary": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- "aligned" is true only if every polygon covers its object and no polygon is shifted, mirrored or rotated away from it.
- "score" is your confidence in [0,1] that the annotations are aligned.
- "issues": lowercase, concise, at most 5 entries, empty list if none.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// maxIssues caps the number of issues kept from a verdict
const maxIssues = 5

// Reviewer judges overlay images with a vision model
type Reviewer struct {
	client client.VisionClient
	model  string
	prompt string
}

// NewReviewer creates a reviewer that queries model through client
func NewReviewer(client client.VisionClient, model string) *Reviewer {
	return &Reviewer{client: client, model: model, prompt: DefaultPrompt}
}

// WithPrompt replaces the review prompt
func (r *Reviewer) WithPrompt(prompt string) *Reviewer {
	r.prompt = prompt
	return r
}

// Review sends an encoded overlay image to the model and parses its verdict
func (r *Reviewer) Review(ctx context.Context, imgB64 string) (*types.Verdict, error) {
	if imgB64 == "" {
		return nil, errors.New("empty image")
	}
	raw, err := r.client.Query(ctx, r.model, r.prompt, imgB64)
	if err != nil {
		return nil, err
	}
	return ParseVerdict(raw), nil
}

// ParseVerdict extracts a verdict from a model answer. Answers that contain
// no usable JSON yield a not-aligned verdict with a zero score.
func ParseVerdict(raw string) *types.Verdict {
	cleaned := sanitizeModelJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return fallback("model returned non-JSON response")
	}

	var v types.Verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return fallback("failed to parse model response")
	}

	v.Score = clamp(v.Score, 0, 1)
	v.Issues = normalizeIssues(v.Issues)
	v.Summary = strings.TrimSpace(v.Summary)
	return &v
}

func fallback(summary string) *types.Verdict {
	return &types.Verdict{
		Aligned: false,
		Score:   0,
		Issues:  []string{"unparseable"},
		Summary: summary,
	}
}

// normalizeIssues lowercases, de-duplicates and caps the issue list
func normalizeIssues(issues []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(issues))
	for _, s := range issues {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == maxIssues {
			break
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments and trailing commas and
// keeps the outermost {...} of a model answer
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
