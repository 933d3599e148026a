package schedule

import (
	"regexp"
	"strings"
	"unicode"
)

// Talk is the decomposition of one schedule cell's free text.
// Any field may be empty; a cell that follows no recognizable convention
// still yields a usable Title and Description.
type Talk struct {
	Title       string
	Speaker     string
	Role        string
	Description string
}

// speakerRoleRe matches the delimiter of a "Speaker — Role" line: an em
// dash, en dash, or hyphen with whitespace on both sides. Only the first
// occurrence splits; dashes inside the role survive.
var speakerRoleRe = regexp.MustCompile(`\s[—–-]\s`)

// DecomposeCell splits the raw multi-line text of one schedule cell into
// title, speaker, role, and description.
//
// The first non-blank line is always the title. If a second line exists it
// is probed by two heuristics, in order: a dash-delimited "Speaker — Role"
// pair, then a bare capitalized name (see looksLikeName). A line matching
// neither stays in the body. Remaining non-blank lines join into the
// description with newlines preserved.
func DecomposeCell(text string) Talk {
	var lines []string
	for _, ln := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return Talk{}
	}

	talk := Talk{Title: lines[0]}
	rest := lines[1:]

	if len(rest) > 0 {
		if speaker, role, ok := splitSpeakerRole(rest[0]); ok {
			talk.Speaker = speaker
			talk.Role = role
			rest = rest[1:]
		} else if looksLikeName(rest[0]) {
			talk.Speaker = rest[0]
			rest = rest[1:]
		}
	}

	talk.Description = strings.Join(rest, "\n")
	return talk
}

// splitSpeakerRole splits a "Speaker — Role" line at the first spaced dash.
// Both sides must be non-empty for the split to count.
func splitSpeakerRole(s string) (speaker, role string, ok bool) {
	loc := speakerRoleRe.FindStringIndex(s)
	if loc == nil {
		return "", "", false
	}
	speaker = strings.TrimSpace(s[:loc[0]])
	role = strings.TrimSpace(s[loc[1]:])
	if speaker == "" || role == "" {
		return "", "", false
	}
	return speaker, role, true
}

// looksLikeName reports whether a line reads like a bare person name: no
// commas, one to four words, every word starting with an uppercase letter
// and containing no digits. Short capitalized titles can satisfy this too;
// that ambiguity is documented heuristic behavior, kept as-is.
func looksLikeName(s string) bool {
	if strings.Contains(s, ",") {
		return false
	}
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes {
			if unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
