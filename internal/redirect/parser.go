// Package redirect extracts auth material delivered via URL after an OAuth
// provider redirect. Providers differ in where they put it: some return
// tokens in the fragment, others in the query string, so both are scanned.
package redirect

import (
	"regexp"
	"strings"
)

// Kind is the variant of credential found in a redirect URL.
type Kind int

const (
	KindNone Kind = iota
	KindSessionID
	KindAccessToken
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSessionID:
		return "session_id"
	case KindAccessToken:
		return "access_token"
	case KindError:
		return "error"
	default:
		return "none"
	}
}

// Credential is the transient result of parsing one redirect. It is never
// persisted and is consumed at most once by the callback machine.
type Credential struct {
	Kind  Kind
	Value string
}

var (
	sessionIDPattern   = regexp.MustCompile(`(?:^|[?&#])session_id=([^&]+)`)
	accessTokenPattern = regexp.MustCompile(`(?:^|[?&#])access_token=([^&]+)`)
	errorPattern       = regexp.MustCompile(`(?:^|[?&#])error=([^&]*)`)
)

// Parse inspects the URL's fragment and query components and produces
// exactly one credential variant. Precedence is total and deterministic:
// session_id wins over access_token, which wins over error. For a given
// key the fragment is checked before the query; the first match wins and
// trailing &-delimited parameters are excluded.
func Parse(fragment, query string) Credential {
	fragment = strings.TrimPrefix(fragment, "#")
	query = strings.TrimPrefix(query, "?")

	if v, ok := match(sessionIDPattern, fragment, query); ok {
		return Credential{Kind: KindSessionID, Value: v}
	}
	if v, ok := match(accessTokenPattern, fragment, query); ok {
		return Credential{Kind: KindAccessToken, Value: v}
	}
	if v, ok := match(errorPattern, fragment, query); ok {
		return Credential{Kind: KindError, Value: v}
	}
	return Credential{Kind: KindNone}
}

func match(pattern *regexp.Regexp, fragment, query string) (string, bool) {
	for _, component := range []string{fragment, query} {
		if m := pattern.FindStringSubmatch(component); m != nil {
			return m[1], true
		}
	}
	return "", false
}
