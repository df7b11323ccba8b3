package activity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"shoptrack/internal/domain"
)

// Field aliases for legacy event collections, in lookup order. Upstream
// logs were written by several generations of admin tooling, so the same
// logical field hides behind different names.
var (
	kindKeys = []string{"type", "key", "stage", "status", "label", "code"}
	textKeys = []string{"text", "message", "label", "note"}
	timeKeys = []string{"date", "at", "time", "created_at", "createdAt", "timestamp"}
)

const defaultIcon = "dot"

// icons maps an activity code to its presentation icon. Unknown codes get
// the default, the mapping is total.
var icons = map[string]string{
	"placed":    "receipt",
	"created":   "receipt",
	"verified":  "shield-check",
	"packaging": "package",
	"packing":   "package",
	"road":      "truck",
	"ontheroad": "truck",
	"shipped":   "truck",
	"lastmile":  "truck",
	"delivered": "home",
	"completed": "home",
	"cancelled": "circle-off",
	"canceled":  "circle-off",
}

type candidate struct {
	code string
	text string
	at   *time.Time
}

// Build produces the deduplicated, most-recent-first activity feed for one
// order snapshot. Pure: same snapshot in, same feed out, and a malformed
// or empty snapshot yields an empty feed rather than an error.
func Build(order domain.Order) []domain.Activity {
	cands := collect(order)
	if len(cands) == 0 {
		cands = bootstrap(order)
	}

	usable := cands[:0:0]
	for _, c := range cands {
		if c.at == nil && strings.TrimSpace(c.text) == "" {
			continue
		}
		usable = append(usable, c)
	}

	// Newest first; entries without a parseable timestamp sort as epoch 0.
	sort.SliceStable(usable, func(i, j int) bool {
		return unixOrZero(usable[i].at) > unixOrZero(usable[j].at)
	})

	seen := make(map[string]struct{}, len(usable))
	out := make([]domain.Activity, 0, len(usable))
	for _, c := range usable {
		code := strings.ToLower(strings.TrimSpace(c.code))
		if code == "" {
			code = "default"
		}
		text := strings.TrimSpace(c.text)
		if text == "" {
			text = fmt.Sprintf("Order %s", code)
		}
		key := dedupeKey(code, text, c.at)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.Activity{Code: code, Text: text, At: c.at, Icon: iconFor(code)})
	}
	return out
}

func collect(order domain.Order) []candidate {
	var cands []candidate
	for _, e := range order.StatusTimeline {
		cands = append(cands, candidate{code: e.Code, text: e.Note, at: e.At})
	}
	for _, coll := range [][]map[string]any{order.Activities, order.Timeline, order.History, order.Events} {
		for _, raw := range coll {
			if raw == nil {
				continue
			}
			cands = append(cands, candidate{
				code: firstString(raw, kindKeys),
				text: firstString(raw, textKeys),
				at:   parseWhen(firstValue(raw, timeKeys)),
			})
		}
	}
	return cands
}

// bootstrap synthesizes minimal events from the order's own timestamps.
// Only used when no explicit events exist at all.
func bootstrap(order domain.Order) []candidate {
	var cands []candidate
	status := order.CanonicalStatus()
	if order.CreatedAt != nil {
		cands = append(cands, candidate{code: "created", at: order.CreatedAt})
	}
	deliveredAt := order.DeliveredAt
	if deliveredAt == nil && status == domain.StatusCompleted {
		deliveredAt = order.UpdatedAt
	}
	if deliveredAt != nil {
		cands = append(cands, candidate{code: "delivered", at: deliveredAt})
	}
	cancelledAt := order.CancelledAt
	if cancelledAt == nil && status == domain.StatusCancelled {
		cancelledAt = order.UpdatedAt
	}
	if cancelledAt != nil {
		cands = append(cands, candidate{code: "cancelled", at: cancelledAt})
	}
	return cands
}

// dedupeKey collapses duplicates described by independent sources. Minute
// precision is deliberate: a structured timeline row and a legacy log line
// for the same physical event rarely agree below the minute.
func dedupeKey(code, text string, at *time.Time) string {
	stamp := ""
	if at != nil {
		stamp = at.UTC().Truncate(time.Minute).Format(time.RFC3339)
	}
	return code + "|" + text + "|" + stamp
}

func iconFor(code string) string {
	if icon, ok := icons[code]; ok {
		return icon
	}
	return defaultIcon
}

func firstString(raw map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstValue(raw map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseWhen accepts the timestamp shapes seen in legacy logs: RFC3339-ish
// strings, plain dates, and unix seconds or milliseconds as JSON numbers.
func parseWhen(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return &parsed
			}
		}
		return nil
	case float64:
		return fromUnix(int64(t))
	case int64:
		return fromUnix(t)
	case int:
		return fromUnix(int64(t))
	default:
		return nil
	}
}

func fromUnix(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	var parsed time.Time
	if n > 1e12 { // milliseconds
		parsed = time.UnixMilli(n).UTC()
	} else {
		parsed = time.Unix(n, 0).UTC()
	}
	return &parsed
}

func unixOrZero(at *time.Time) int64 {
	if at == nil {
		return 0
	}
	return at.UnixNano()
}
