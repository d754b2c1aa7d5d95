package console

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/buswatch/buswatch/internal/observability"
	"github.com/buswatch/buswatch/internal/schema"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html"
	contentTypeCSS  = "text/css"
	contentTypeJS   = "application/javascript"
	contentTypeText = "text/plain"
)

// displayLimit caps the rendered size of payload and response fields in the
// events listing; longer values are cut and suffixed with an ellipsis.
const displayLimit = 256

// dispatch answers a request whose path matched the console's route table.
// The event is acknowledged synchronously for every supported verb; an
// unsupported verb leaves it unacknowledged so the transport times it out.
func (c *Console) dispatch(evt *schema.Event, req *schema.HTTPObject, m routeMatch) {
	switch req.Method {
	case "GET":
		c.handleGet(evt, req, m)
	case "PATCH":
		if m.kind == routeConfig {
			c.applyUpdate(evt, req)
			return
		}
		c.diagUnsupported(req)
	case "DELETE":
		if m.kind == routeService {
			c.handleDelete(evt, m.param)
			return
		}
		c.diagUnsupported(req)
	default:
		c.diagUnsupported(req)
	}
}

func (c *Console) handleGet(evt *schema.Event, req *schema.HTTPObject, m routeMatch) {
	switch m.kind {
	case routeSystemInfo:
		responseJSON(evt, c.systemInfo())
	case routeEvents:
		responseJSON(evt, c.eventDocuments())
	case routeLogs:
		responseJSON(evt, c.logs.SnapshotNewestFirst())
	case routeConfig:
		responseJSON(evt, c.configDocument())
	case routeDashboard:
		responseOk(evt, contentTypeHTML, []byte(c.assets[dashboardRoot]))
	case routeAsset:
		responseOk(evt, typeFromFileExt(m.param), []byte(c.assets[m.param]))
	default:
		// Matched routes with no GET representation (service) fall through
		// unacknowledged.
		c.diagUnsupported(req)
	}
}

// handleDelete acknowledges immediately and hands the actual stop to the
// registry via the unregister channel; the caller never waits on teardown.
func (c *Console) handleDelete(evt *schema.Event, name string) {
	responseOk(evt, contentTypeJSON, nil)
	c.tasks.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		unreg := schema.NewBroadcast(schema.ChannelServiceUnregister, name)
		if err := c.bus.Publish(ctx, unreg); err != nil {
			c.logger.Error("service unregister publish failed",
				observability.F("service", name), observability.F("error", err.Error()))
		}
	})
}

func (c *Console) diagUnsupported(req *schema.HTTPObject) {
	c.diag.Do(func() {
		c.logger.Debug("unsupported console request",
			observability.F("method", req.Method), observability.F("path", req.Path))
	})
}

// eventDocument is the wire shape of one retained event in the listing.
type eventDocument struct {
	Channel        string `json:"channel"`
	IsAck          bool   `json:"isAck"`
	IsBroadcast    bool   `json:"isBroadcast"`
	EventTimestamp int64  `json:"eventTimestamp"`
	Payload        string `json:"payload"`
	Response       string `json:"response"`
}

func (c *Console) eventDocuments() []eventDocument {
	snapshot := c.events.SnapshotNewestFirst()
	docs := make([]eventDocument, len(snapshot))
	for i, evt := range snapshot {
		docs[i] = eventDocument{
			Channel:        string(evt.Channel),
			IsAck:          evt.Acknowledged(),
			IsBroadcast:    evt.Broadcast,
			EventTimestamp: evt.RecordedAt().UnixMilli(),
			Payload:        truncateDisplay(observability.FormatPayload(evt.Payload)),
			Response:       truncateDisplay(observability.FormatPayload(evt.Response())),
		}
	}
	return docs
}

func truncateDisplay(s string) string {
	runes := []rune(s)
	if len(runes) <= displayLimit {
		return s
	}
	return string(runes[:displayLimit]) + "…"
}

// responseOk acknowledges the event with a 200 response. Every console
// response carries the permissive CORS header so the dashboard can be served
// from another origin during development.
func responseOk(evt *schema.Event, contentType string, body []byte) {
	resp := &schema.HTTPObject{
		Status:      200,
		ContentType: contentType,
		Body:        body,
	}
	resp.SetHeader("Access-Control-Allow-Origin", "*")
	evt.Respond(resp)
}

func responseJSON(evt *schema.Event, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		observability.Log().Error("console response encode failed",
			observability.F("error", err.Error()))
		return
	}
	responseOk(evt, contentTypeJSON, body)
}

func typeFromFileExt(name string) string {
	switch {
	case hasSuffix(name, ".html"):
		return contentTypeHTML
	case hasSuffix(name, ".css"):
		return contentTypeCSS
	case hasSuffix(name, ".js"):
		return contentTypeJS
	default:
		return contentTypeText
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
