package viewstate

// SynopsisLimit is the number of characters shown before the synopsis is cut.
const SynopsisLimit = 100

// Ellipsis marks a truncated synopsis.
const Ellipsis = "..."

// Truncate returns the overview as shown on the detail screen and whether more
// text is available. Length is counted in characters, not bytes.
func Truncate(overview string) (string, bool) {
	r := []rune(overview)
	if len(r) <= SynopsisLimit {
		return overview, false
	}
	return string(r[:SynopsisLimit]) + Ellipsis, true
}
