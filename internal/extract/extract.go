package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	urlCandidateRegex      = regexp.MustCompile(`(?i)https?://[^\s)\]}>"']+`)
	trailingPunctuationSet = regexp.MustCompile(`[.,!?;:]+$`)
)

// RepoRef is a canonicalized GitHub repository reference pulled out of
// free-form text.
type RepoRef struct {
	RepoID  string
	RepoURL string
}

// NormalizeGitHubURL canonicalizes a single URL candidate into a RepoRef.
// Owner and name are lowercased, a trailing ".git" is stripped, and deeper
// paths (issues, PRs, query strings) collapse to the repository root.
// Non-GitHub hosts and malformed URLs return ok=false.
func NormalizeGitHubURL(raw string) (RepoRef, bool) {
	cleaned := trailingPunctuationSet.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return RepoRef{}, false
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return RepoRef{}, false
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return RepoRef{}, false
	}

	var segments []string
	for _, segment := range strings.Split(parsed.Path, "/") {
		if s := strings.TrimSpace(segment); s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return RepoRef{}, false
	}

	owner := strings.ToLower(segments[0])
	name := strings.TrimSuffix(strings.ToLower(segments[1]), ".git")
	if owner == "" || name == "" {
		return RepoRef{}, false
	}

	return RepoRef{
		RepoID:  owner + "/" + name,
		RepoURL: "https://github.com/" + owner + "/" + name,
	}, true
}

// Repositories extracts every distinct GitHub repository referenced in text,
// in first-appearance order. Repeated references to the same repository are
// deduplicated by RepoID.
func Repositories(text string) []RepoRef {
	if text == "" {
		return nil
	}

	var refs []RepoRef
	seen := map[string]struct{}{}
	for _, candidate := range urlCandidateRegex.FindAllString(text, -1) {
		ref, ok := NormalizeGitHubURL(candidate)
		if !ok {
			continue
		}
		if _, dup := seen[ref.RepoID]; dup {
			continue
		}
		seen[ref.RepoID] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
