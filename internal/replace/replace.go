// Package replace applies user-defined rename rules to path segments.
package replace

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"structa/internal/domain"
)

// Rule is a compiled replacement. When the search text is not a valid
// regular expression the rule falls back to literal substring replacement.
type Rule struct {
	Search  string
	Replace string
	re      *regexp.Regexp
	tmpl    string
}

// Compile prepares a rule for repeated application.
func Compile(r domain.Replacement) Rule {
	rule := Rule{Search: r.Search, Replace: r.Replace}
	if re, err := compilePattern(r.Search); err == nil {
		rule.re = re
		rule.tmpl = expandTemplate(r.Replace, re.NumSubexp())
	}
	return rule
}

func compilePattern(search string) (*regexp.Regexp, error) {
	return regexp.Compile(search)
}

// Literal reports whether the rule degraded to substring replacement.
func (r Rule) Literal() bool {
	return r.re == nil
}

// Apply replaces every match in s.
func (r Rule) Apply(s string) string {
	if r.Search == "" {
		return s
	}
	if r.re != nil {
		return r.re.ReplaceAllString(s, r.tmpl)
	}
	return strings.ReplaceAll(s, r.Search, r.Replace)
}

// expandTemplate rewrites $1, $& and $$ style references into the ${n}
// form understood by regexp. References to groups the pattern does not have,
// and any other dollar sign, are kept literally.
func expandTemplate(replacement string, groups int) string {
	if !strings.Contains(replacement, "$") {
		return replacement
	}
	var b strings.Builder
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(replacement) {
			b.WriteString("$$")
			continue
		}
		next := replacement[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next == '&':
			b.WriteString("${0}")
			i++
		case isDigit(next):
			if n, width := groupRef(replacement[i+1:], groups); width > 0 {
				b.WriteString("${" + strconv.Itoa(n) + "}")
				i += width
				continue
			}
			b.WriteString("$$")
		default:
			b.WriteString("$$")
		}
	}
	return b.String()
}

// groupRef parses the group number after a dollar sign, preferring two
// digits when that group exists. Width is zero when no group matches.
func groupRef(s string, groups int) (n, width int) {
	if len(s) >= 2 && isDigit(s[1]) {
		if two := int(s[0]-'0')*10 + int(s[1]-'0'); two >= 1 && two <= groups {
			return two, 2
		}
	}
	if one := int(s[0] - '0'); one >= 1 && one <= groups {
		return one, 1
	}
	return 0, 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Groups partitions rules by where they apply. Files and Folders each hold
// every applicable rule exactly once, rules flagged for both first.
type Groups struct {
	All     []Rule
	Files   []Rule
	Folders []Rule
}

// BuildGroups drops blank rules and partitions the rest.
func BuildGroups(rules []domain.Replacement) Groups {
	var both, filesOnly, foldersOnly []Rule
	for _, r := range rules {
		if r.Blank() {
			continue
		}
		switch {
		case r.ReplaceInFiles && r.ReplaceInFolders:
			both = append(both, Compile(r))
		case r.ReplaceInFiles:
			filesOnly = append(filesOnly, Compile(r))
		case r.ReplaceInFolders:
			foldersOnly = append(foldersOnly, Compile(r))
		}
	}
	return Groups{
		All:     both,
		Files:   concat(both, filesOnly),
		Folders: concat(both, foldersOnly),
	}
}

func concat(a, b []Rule) []Rule {
	out := make([]Rule, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Empty reports whether no rule applies anywhere.
func (g Groups) Empty() bool {
	return len(g.Files) == 0 && len(g.Folders) == 0
}

func (g Groups) FileName(name string) string {
	return applyAll(g.Files, name)
}

func (g Groups) FolderName(name string) string {
	return applyAll(g.Folders, name)
}

// RelativePath rewrites a slash-separated relative path segment by segment.
// The last segment uses file rules when leafIsFile is set; every other
// segment uses folder rules.
func (g Groups) RelativePath(rel string, leafIsFile bool) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	for i, part := range out {
		if leafIsFile && i == len(out)-1 {
			out[i] = g.FileName(part)
			continue
		}
		out[i] = g.FolderName(part)
	}
	return path.Join(out...)
}

// FileTarget applies file rules to the basename of target only.
func (g Groups) FileTarget(target string) string {
	if len(g.Files) == 0 {
		return target
	}
	dir, name := filepath.Split(target)
	return dir + g.FileName(name)
}

func applyAll(rules []Rule, s string) string {
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}
