// Package layout models named, togglable, orderable report sections and the
// pure operations over them. Persistence and remote sync live in the service
// layer; everything here is side-effect free.
package layout

import "context"

const (
	SectionFull   SectionType = "full"
	SectionHalf   SectionType = "half"
	SectionBottom SectionType = "bottom"
)

type (
	// SectionType is the rendering slot a section occupies.
	SectionType string

	// Section is one togglable unit of a report layout. Order is implicit
	// via position in the slice. The id set is fixed per report type by a
	// default template: persisted state may reorder and toggle visibility
	// but never invent new ids.
	Section struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Visible bool        `json:"visible"`
		Type    SectionType `json:"type"`
	}

	// LocalStore is the fast local cache for persisted layouts. Load
	// returns nil with no error when nothing is persisted yet.
	LocalStore interface {
		LoadLayout(ctx context.Context, ownerID, reportType string) ([]Section, error)
		SaveLayout(ctx context.Context, ownerID, reportType string, sections []Section) error
		DeleteLayout(ctx context.Context, ownerID, reportType string) error
	}

	// RemoteStore is the durable cross-device store. Fetch returns nil with
	// no error when the remote has no saved layout.
	RemoteStore interface {
		FetchLayout(ctx context.Context, ownerID, reportType string) ([]Section, error)
		PushLayout(ctx context.Context, ownerID, reportType string, sections []Section) error
	}
)

// Merge resolves a section list from the default template and up to two
// persisted overlays. Precedence is remote > local > template per field;
// the template stays authoritative on shape: name and type always come from
// it, ids absent from it are dropped, and template ids missing from the
// persisted order are appended in template order.
func Merge(template, local, remote []Section) []Section {
	byID := make(map[string]Section, len(template))
	for _, s := range template {
		byID[s.ID] = s
	}

	order := remote
	if len(order) == 0 {
		order = local
	}
	if len(order) == 0 {
		order = template
	}

	localVis := visibilityIndex(local)
	remoteVis := visibilityIndex(remote)

	merged := make([]Section, 0, len(template))
	seen := make(map[string]bool, len(template))
	appendSection := func(id string) {
		if seen[id] {
			return
		}
		base, ok := byID[id]
		if !ok {
			return // schema drift: unknown persisted id
		}
		seen[id] = true
		if v, ok := remoteVis[id]; ok {
			base.Visible = v
		} else if v, ok := localVis[id]; ok {
			base.Visible = v
		}
		merged = append(merged, base)
	}

	for _, s := range order {
		appendSection(s.ID)
	}
	for _, s := range template {
		appendSection(s.ID)
	}
	return merged
}

func visibilityIndex(sections []Section) map[string]bool {
	if len(sections) == 0 {
		return nil
	}
	idx := make(map[string]bool, len(sections))
	for _, s := range sections {
		idx[s.ID] = s.Visible
	}
	return idx
}

// Toggle flips one section's visibility, returning a new slice. The second
// result reports whether the id was found.
func Toggle(sections []Section, id string) ([]Section, bool) {
	out := Clone(sections)
	for i := range out {
		if out[i].ID == id {
			out[i].Visible = !out[i].Visible
			return out, true
		}
	}
	return out, false
}

// Reorder moves the element at from to position to, returning a new slice.
// Out-of-range indices are rejected: the input is returned unchanged with
// false, never a corrupted list.
func Reorder(sections []Section, from, to int) ([]Section, bool) {
	if from < 0 || from >= len(sections) || to < 0 || to >= len(sections) {
		return sections, false
	}
	out := Clone(sections)
	if from == to {
		return out, true
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]Section{moved}, out[to:]...)...)
	return out, true
}

// Sanitize conforms an arbitrary section list to a template: unknown ids
// are dropped, missing ids appended with template defaults, names and types
// restored from the template. Used before persisting client-supplied lists.
func Sanitize(template, sections []Section) []Section {
	return Merge(template, nil, sections)
}

// Visible returns the visible sections in order.
func Visible(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// GroupByType projects sections into per-slot lists, preserving order.
// Recomputed on every call so it can never diverge from the source list.
func GroupByType(sections []Section) map[SectionType][]Section {
	out := make(map[SectionType][]Section)
	for _, s := range sections {
		out[s.Type] = append(out[s.Type], s)
	}
	return out
}

// Clone returns an independent copy of a section list.
func Clone(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// Equal reports whether two section lists are identical in ids, order and
// visibility.
func Equal(a, b []Section) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Visible != b[i].Visible {
			return false
		}
	}
	return true
}
