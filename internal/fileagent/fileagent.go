// Package fileagent implements the file.search and file.read_text step
// actions: a scoped, glob-filtered substring search over a directory tree,
// and a scoped single-file read with truncation.
package fileagent

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rcourtman/liteclaw/internal/apperr"
	"github.com/rcourtman/liteclaw/internal/policy"
)

var binaryExtensions = map[string]struct{}{
	".exe": {}, ".dll": {}, ".bin": {}, ".so": {}, ".dylib": {},
	".pdf": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".zip": {}, ".gz": {}, ".7z": {}, ".mp4": {}, ".mp3": {},
}

func isProbablyBinary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := binaryExtensions[ext]; ok {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	buf := make([]byte, 2048)
	n, _ := f.Read(buf)
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

// makeSnippet centers a window on the first case-insensitive occurrence of
// query within text, collapsing newlines to spaces.
func makeSnippet(text, query string, maxSnippetChars int) string {
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)
	idx := strings.Index(lowerText, lowerQuery)
	if idx < 0 {
		return ""
	}
	start := idx - maxSnippetChars/2
	if start < 0 {
		start = 0
	}
	end := start + maxSnippetChars
	if end > len(text) {
		end = len(text)
	}
	snippet := strings.ReplaceAll(text[start:end], "\n", " ")
	snippet = strings.TrimSpace(snippet)
	if len(snippet) > maxSnippetChars {
		snippet = snippet[:maxSnippetChars]
	}
	return snippet
}

// matchesGlob reports whether relativePath matches any of patterns, with
// the same "**/ prefix also matches without the prefix" fallback the
// reference implementation applies.
func matchesGlob(relativePath string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, relativePath); ok {
			return true
		}
		if ok, _ := doubleStarMatch(pattern, relativePath); ok {
			return true
		}
	}
	return false
}

// doubleStarMatch handles a "**/" prefix by matching the pattern's suffix
// against any path depth, since filepath.Match has no recursive wildcard.
func doubleStarMatch(pattern, relativePath string) (bool, error) {
	if !strings.HasPrefix(pattern, "**/") {
		return filepath.Match(pattern, relativePath)
	}
	suffix := pattern[3:]
	parts := strings.Split(relativePath, "/")
	for i := range parts {
		candidate := strings.Join(parts[i:], "/")
		if ok, _ := filepath.Match(suffix, candidate); ok {
			return true, nil
		}
	}
	return false, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SearchResult is one file.search match.
type SearchResult struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
	Match   string `json:"match"`
}

// SearchOutput is the full result of a file.search step.
type SearchOutput struct {
	Results             []SearchResult `json:"results"`
	ScannedFiles        int            `json:"scanned_files"`
	SkippedBinaryFiles  int            `json:"skipped_binary_files"`
	SkippedPatternFiles int            `json:"skipped_pattern_files"`
	Warnings            []string       `json:"warnings"`
	ElapsedMS           int64          `json:"elapsed_ms"`
}

// Search walks root (already scope-checked at the root level, then
// re-checked per file to defend against symlink escapes), matching files
// against globs and collecting up to maxResults substring matches of query.
func Search(root, query string, globs []string, maxResults, maxSnippetChars int, configAllowedRoots, planAllowedRoots []string) (SearchOutput, error) {
	resolvedRoot, err := policy.EnsureFileReadScope(root, configAllowedRoots, planAllowedRoots)
	if err != nil {
		return SearchOutput{}, err
	}
	info, err := os.Stat(resolvedRoot)
	if err != nil || !info.IsDir() {
		return SearchOutput{}, apperr.BadRequest("Root folder not found: %s", resolvedRoot)
	}

	patterns := globs
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}
	maxResults = clamp(maxResults, 1, 100)
	maxSnippetChars = clamp(maxSnippetChars, 32, 2000)

	start := time.Now()
	out := SearchOutput{Results: []SearchResult{}, Warnings: []string{}}

	var files []string
	_ = filepath.WalkDir(resolvedRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return strings.ToLower(files[i]) < strings.ToLower(files[j]) })

	for _, path := range files {
		if len(out.Results) >= maxResults {
			break
		}
		relative, err := filepath.Rel(resolvedRoot, path)
		if err != nil {
			continue
		}
		relative = filepath.ToSlash(relative)
		if !matchesGlob(relative, patterns) {
			out.SkippedPatternFiles++
			continue
		}
		if _, err := policy.EnsureFileReadScope(path, configAllowedRoots, planAllowedRoots); err != nil {
			continue
		}
		out.ScannedFiles++

		if isProbablyBinary(path) {
			out.SkippedBinaryFiles++
			if len(out.Warnings) < 5 {
				out.Warnings = append(out.Warnings, "skipped binary file: "+path)
			}
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			if len(out.Warnings) < 5 {
				out.Warnings = append(out.Warnings, "skipped unreadable file: "+path)
			}
			continue
		}
		if !isValidUTF8(content) {
			out.SkippedBinaryFiles++
			if len(out.Warnings) < 5 {
				out.Warnings = append(out.Warnings, "skipped non-text file: "+path)
			}
			continue
		}
		text := string(content)
		if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			out.Results = append(out.Results, SearchResult{
				Path:    path,
				Snippet: makeSnippet(text, query, maxSnippetChars),
				Match:   query,
			})
		}
	}

	out.ElapsedMS = time.Since(start).Milliseconds()
	return out, nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// ReadOutput is the result of a file.read_text step.
type ReadOutput struct {
	Path          string `json:"path"`
	Content       string `json:"content"`
	Truncated     bool   `json:"truncated"`
	ReturnedChars int    `json:"returned_chars"`
	TotalChars    int    `json:"total_chars"`
}

// ReadText reads a scope-checked, existing, UTF-8 text file, truncating to
// maxChars.
func ReadText(path string, maxChars int, configAllowedRoots, planAllowedRoots []string) (ReadOutput, error) {
	if path == "" {
		return ReadOutput{}, apperr.BadRequest("file.read_text requires a path input")
	}
	resolved, err := policy.EnsureFileReadScope(path, configAllowedRoots, planAllowedRoots)
	if err != nil {
		return ReadOutput{}, err
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return ReadOutput{}, apperr.BadRequest("File not found: %s", resolved)
	}
	maxChars = clamp(maxChars, 1, 200000)

	data, err := os.ReadFile(resolved)
	if err != nil {
		return ReadOutput{}, apperr.BadRequest("Could not read file %s: %v", resolved, err)
	}
	if !isValidUTF8(data) {
		return ReadOutput{}, apperr.BadRequest("File is not valid UTF-8 text: %s", resolved)
	}
	content := string(data)
	totalChars := len([]rune(content))
	runes := []rune(content)
	truncated := totalChars > maxChars
	returned := totalChars
	if truncated {
		returned = maxChars
		runes = runes[:maxChars]
	}
	return ReadOutput{
		Path:          resolved,
		Content:       string(runes),
		Truncated:     truncated,
		ReturnedChars: returned,
		TotalChars:    totalChars,
	}, nil
}
