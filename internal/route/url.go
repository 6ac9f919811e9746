package route

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/navkit/internal/apperr"
)

// Reserved query items understood by ParseURL.
const (
	QueryNavigationType = "navigationType"
	QueryTab            = "tab"
)

// Link is a parsed deep link.
type Link struct {
	Route          string
	Parameters     Parameters
	NavigationType NavigationType // zero when not given
	TabID          string
}

// ParseURL parses a deep link of the form scheme://route?k=v. The reserved
// items navigationType and tab are lifted out of the parameters.
func ParseURL(raw string) (Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, apperr.InvalidRouteKey(raw)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		name = strings.Trim(u.Opaque, "/")
	}
	if name == "" {
		return Link{}, apperr.InvalidRouteKey(raw)
	}

	params, err := ParseQuery(u.RawQuery)
	if err != nil {
		return Link{}, err
	}

	link := Link{Route: name}
	data := params.Data()
	if v, ok := data[QueryNavigationType]; ok {
		t, err := ParseNavigationType(v)
		if err != nil {
			return Link{}, fmt.Errorf("route: parse url: %w", err)
		}
		link.NavigationType = t
		delete(data, QueryNavigationType)
	}
	if v, ok := data[QueryTab]; ok {
		link.TabID = v
		delete(data, QueryTab)
	}
	link.Parameters = NewParameters(data)
	return link, nil
}
