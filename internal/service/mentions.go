package service

import (
	"regexp"
	"strings"
)

// mentionPattern matches @handle tokens that are not part of an email address.
var mentionPattern = regexp.MustCompile(`(?:^|[^A-Za-z0-9._%+-])@([A-Za-z0-9][A-Za-z0-9._-]*)`)

// ExtractMentions returns the distinct lower-cased handles mentioned in body,
// in order of first appearance.
func ExtractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		handle := strings.ToLower(strings.TrimRight(m[1], "._-"))
		if handle == "" {
			continue
		}
		if _, dup := seen[handle]; dup {
			continue
		}
		seen[handle] = struct{}{}
		out = append(out, handle)
	}
	return out
}
