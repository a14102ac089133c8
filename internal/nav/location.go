package nav

import (
	"net/url"
	"strings"
)

// Query parameter names of the shareable location.
const (
	ParamList = "list"
	ParamTask = "task"
	ParamSub  = "sub"
)

// LocationPolicy controls which levels of the selection are written to the location.
//
// Collections and items are always encoded. The sub-item selection is only encoded when
// SubItem is set; otherwise it resets on reload.
type LocationPolicy struct {
	SubItem bool
}

// Encode renders p as a query string, e.g. "list=5&task=12". The root view encodes as "".
func (pol LocationPolicy) Encode(p Path) string {
	p = p.Normalize()
	v := url.Values{}
	if p.CollectionID != "" {
		v.Set(ParamList, p.CollectionID)
	}
	if p.ItemID != "" {
		v.Set(ParamTask, p.ItemID)
	}
	if pol.SubItem && p.SubItemID != "" {
		v.Set(ParamSub, p.SubItemID)
	}
	return v.Encode()
}

// Decode parses an externally supplied location. It accepts a bare query ("list=5&task=12"),
// a query with a leading "?", or a full URL. Pairs are separated by "&" or ";". A pair that fails
// to unescape is skipped, so only its own level is blanked; a task without a list (or a sub
// without a task) is ignored.
func (pol LocationPolicy) Decode(raw string) Path {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Path{}
	}
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	v := parseQuery(raw)
	p := Path{
		CollectionID: v[ParamList],
		ItemID:       v[ParamTask],
	}
	if pol.SubItem {
		p.SubItemID = v[ParamSub]
	}
	return p.Normalize()
}

// parseQuery keeps the first well-formed value of every key. url.ParseQuery is not used
// because it rejects ";" separators and reports one error for the whole query.
func parseQuery(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ';' }) {
		k, val, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(val)
		if err != nil {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = value
		}
	}
	return out
}
