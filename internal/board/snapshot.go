package board

// LineRole tags what a display line is, so the renderer can pick fonts and
// indentation without parsing text.
type LineRole string

const (
	RoleHeader       LineRole = "header"
	RoleRoute        LineRole = "route"
	RoleContinuation LineRole = "continuation"
	RoleBlank        LineRole = "blank"
)

// Line is a single line of text to display.
type Line struct {
	Text string   `json:"text"`
	Role LineRole `json:"role"`
}

// Snapshot is the fully formatted, comparison-ready representation of what
// should currently be shown. Value-comparable: two snapshots are equal iff
// every field, including the full ordered line sequence, is equal.
type Snapshot struct {
	Title          string `json:"title"`
	Date           string `json:"date"`
	Lines          []Line `json:"lines"`
	RefreshSeconds int    `json:"refreshSeconds"`
}

// Equal reports value equality with another snapshot.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Title != o.Title || s.Date != o.Date || s.RefreshSeconds != o.RefreshSeconds {
		return false
	}
	if len(s.Lines) != len(o.Lines) {
		return false
	}
	for i := range s.Lines {
		if s.Lines[i] != o.Lines[i] {
			return false
		}
	}
	return true
}
