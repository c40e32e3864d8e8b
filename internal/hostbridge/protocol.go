package hostbridge

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/opgrid/internal/boundary"
	"github.com/specialistvlad/opgrid/internal/layout"
)

// Events the controller may emit.
const (
	EventInitialize    = "initialize"
	EventCompute       = "compute"
	EventImportData    = "import_data"
	EventExportData    = "export_data"
	EventExportDataMap = "export_data_map"
	EventFinalize      = "finalize"
)

// Events lists every request event in the order handlers are attached.
var Events = []string{
	EventInitialize,
	EventCompute,
	EventImportData,
	EventExportData,
	EventExportDataMap,
	EventFinalize,
}

// ResultEvent is the event a response to event is emitted under.
func ResultEvent(event string) string { return event + "_result" }

// Request is the payload of every request event. Fields not used by an
// event are ignored.
type Request struct {
	ID     string    `json:"id"`
	Name   string    `json:"name,omitempty"`
	Layout string    `json:"layout,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// Response answers one request.
type Response struct {
	ID     string    `json:"id"`
	Status int       `json:"status"`
	Values []float64 `json:"values,omitempty"`
	IDs    []int     `json:"ids,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// decodeRequest accepts whatever the socket library produced for a JSON
// object (usually map[string]any) by re-encoding it.
func decodeRequest(payload any) (Request, error) {
	var req Request
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// Handle serves one request against b. The second result reports whether
// the bridge should stop after answering.
func Handle(b *boundary.Boundary, event string, req Request) (Response, bool) {
	resp := Response{ID: req.ID}

	switch event {
	case EventInitialize:
		resp.Status = b.Initialize()
	case EventCompute:
		resp.Status = b.Compute(req.Name)
	case EventImportData:
		l, err := layout.Parse(req.Layout)
		if err != nil {
			return failed(resp, boundary.StatusConfiguration, err), false
		}
		resp.Status = b.ImportData(req.Name, l, req.Values)
	case EventExportData:
		l, err := layout.Parse(req.Layout)
		if err != nil {
			return failed(resp, boundary.StatusConfiguration, err), false
		}
		resp.Values, resp.Status = b.ExportData(req.Name, l)
	case EventExportDataMap:
		l, err := layout.Parse(req.Layout)
		if err != nil {
			return failed(resp, boundary.StatusConfiguration, err), false
		}
		resp.IDs, resp.Status = b.ExportDataMap(l)
	case EventFinalize:
		resp.Status = b.Finalize()
		return resp, true
	default:
		return failed(resp, boundary.StatusFailure, fmt.Errorf("unknown event %q", event)), false
	}
	return resp, false
}

func failed(resp Response, status int, err error) Response {
	resp.Status = status
	resp.Error = err.Error()
	return resp
}
