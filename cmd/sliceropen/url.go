package main

import (
	"fmt"
	"net/url"
	"strings"
)

const scheme = "3dprint://"

// parseProtocolURL extracts the file path from a 3dprint:// URL. The only
// accepted grammar is 3dprint://open?file=<percent-encoded-path>.
func parseProtocolURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("no URL provided")
	}
	if !strings.HasPrefix(raw, scheme) {
		return "", fmt.Errorf("invalid protocol, expected %s", scheme)
	}

	// The custom scheme confuses url.Parse's host handling, so the
	// authority and query are split by hand and only the query goes
	// through the standard parser.
	rest := strings.TrimPrefix(raw, scheme)
	authority, query, ok := strings.Cut(rest, "?")
	if !ok {
		return "", fmt.Errorf("missing query parameters")
	}
	if authority != "open" {
		return "", fmt.Errorf("invalid action %q, expected open", authority)
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("invalid query: %v", err)
	}
	file := params.Get("file")
	if file == "" {
		return "", fmt.Errorf("missing file parameter")
	}
	return file, nil
}
