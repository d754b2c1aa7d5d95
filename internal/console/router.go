package console

import (
	"strings"

	"github.com/buswatch/buswatch/internal/schema"
)

// Console endpoint sub-paths under BaseURL.
const (
	infoPath      = "/system-info"
	eventsPath    = "/events"
	logsPath      = "/logs"
	configPath    = "/config"
	servicePrefix = "/service/"
)

type routeKind int

const (
	routeNone routeKind = iota
	routeSystemInfo
	routeEvents
	routeLogs
	routeConfig
	routeService
	routeDashboard
	routeAsset
)

// routeMatch describes which logical endpoint a request resolved to, plus
// the path parameter for service and asset routes. Produced per request and
// discarded after dispatch.
type routeMatch struct {
	kind  routeKind
	param string
}

// matchRoute resolves a request path against the console's route table. It
// is pure with respect to the request; routes that name a component or asset
// only match when the target currently exists, so misses fall through to the
// host's generic not-found handling.
func (c *Console) matchRoute(req *schema.HTTPObject) routeMatch {
	path := req.Path
	if len(path) > len(BaseURL) {
		path = strings.TrimSuffix(path, "/")
	}
	if !strings.HasPrefix(path, BaseURL) {
		return routeMatch{}
	}
	rest := path[len(BaseURL):]

	switch rest {
	case infoPath:
		return routeMatch{kind: routeSystemInfo}
	case eventsPath:
		return routeMatch{kind: routeEvents}
	case logsPath:
		return routeMatch{kind: routeLogs}
	case configPath:
		return routeMatch{kind: routeConfig}
	case "", c.uiPathNow():
		return routeMatch{kind: routeDashboard}
	}

	if name, ok := strings.CutPrefix(rest, servicePrefix); ok {
		if name != "" && !strings.Contains(name, "/") {
			if _, found := c.lookupVisible(name); found {
				return routeMatch{kind: routeService, param: name}
			}
		}
		return routeMatch{}
	}

	if file, ok := strings.CutPrefix(rest, "/"); ok && file != "" && !strings.Contains(file, "/") {
		if _, known := c.assets[file]; known {
			return routeMatch{kind: routeAsset, param: file}
		}
	}
	return routeMatch{}
}
