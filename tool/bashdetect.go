package tool

import (
	"path/filepath"
	"regexp"
	"strings"
)

// bashMutationPatterns recognizes the common shell idioms that write to a
// specific file path, so the runtime can snapshot that path for undo before
// running an otherwise-opaque Bash command. This is necessarily a heuristic:
// Bash commands aren't declarative about what they touch the way Write/Edit
// are.
var bashMutationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`>{1,2}\s*([^\s|&;]+)`),                     // redirection: echo x > file, cmd >> file
	regexp.MustCompile(`\bcp\s+(?:-\S+\s+)*\S+\s+([^\s|&;]+)`),     // cp src dst
	regexp.MustCompile(`\bmv\s+(?:-\S+\s+)*\S+\s+([^\s|&;]+)`),     // mv src dst
	regexp.MustCompile(`\bsed\s+-i\S*\s+(?:[^\s]+\s+)*([^\s|&;]+)`), // sed -i ... file
	regexp.MustCompile(`\btouch\s+([^\s|&;]+)`),                    // touch file
}

// detectMutatedPaths scans command for file paths it is likely to write,
// resolving relative paths against cwd.
func detectMutatedPaths(command, cwd string) []string {
	seen := map[string]bool{}
	var out []string
	for _, re := range bashMutationPatterns {
		for _, m := range re.FindAllStringSubmatch(command, -1) {
			if len(m) < 2 {
				continue
			}
			p := strings.Trim(m[1], `"'`)
			if p == "" || p == "/dev/null" {
				continue
			}
			if !filepath.IsAbs(p) {
				p = filepath.Join(cwd, p)
			}
			p = filepath.Clean(p)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
