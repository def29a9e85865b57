package events

import (
	"encoding/json"
	"time"
)

// Event types published on the bus.
const (
	TypeJobCreated          = "job.created"
	TypeJobStatusChanged    = "job.status_changed"
	TypeJobReady            = "job.ready_to_apply"
	TypeFollowUpFlagged     = "job.follow_up_needed"
	TypeIngestStarted       = "ingest.started"
	TypeIngestFinished      = "ingest.finished"
	TypeMaintenanceFinished = "maintenance.finished"
	TypeCycleSkipped        = "cycle.skipped"
	TypeConfigUpdated       = "config.updated"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
