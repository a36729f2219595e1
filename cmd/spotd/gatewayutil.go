package main

import (
	"fmt"
	"strings"

	"github.com/surveyline/spotd/internal/gateway"
	"github.com/surveyline/spotd/internal/session"
)

// openGateway picks a backend from the target string: http(s) URLs use
// the HTTP gateway, .db/.sqlite paths use SQLite, everything else is a
// file in the named or detected format. The returned closer is nil for
// backends without teardown.
func openGateway(target, format string) (session.Gateway, func() error, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return gateway.NewHTTP(target, nil), nil, nil
	}

	lower := strings.ToLower(target)
	if strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") {
		g, err := gateway.OpenSQLite(target)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}

	if format != "" {
		f, err := gateway.ParseFormat(format)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid format for %s: %w", target, err)
		}
		return gateway.NewFileWithFormat(target, f), nil, nil
	}
	return gateway.NewFile(target), nil, nil
}
