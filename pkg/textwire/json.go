package textwire

import (
	"encoding/json"
	"strings"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// jsonResult is one entry of a multi-property response body.
type jsonResult struct {
	Status *string     `json:"status"`
	ID     *string     `json:"id"`
	Value  *wire.Value `json:"value,omitempty"`
}

// jsonMessage is one entry of a MESSAGES READ body.
type jsonMessage struct {
	AccessID  string `json:"access_id"`
	DeviceID  string `json:"device_id"`
	Message   string `json:"message"`
	MessageID int    `json:"message_id"`
	Timestamp string `json:"timestamp"`
}

// encodeIDList renders a JSON array of identifiers with ", " separators.
func encodeIDList(ids []string) (string, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		b, err := json.Marshal(id)
		if err != nil {
			return "", err
		}
		parts[i] = string(b)
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func decodeIDList(op wire.Operation, body string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(body), &ids); err != nil {
		return nil, wire.Malformed("%s body: %v", op, err)
	}
	return ids, nil
}

func decodeResults(op wire.Operation, body string) ([]wire.PropertyResult, error) {
	var entries []jsonResult
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, wire.Malformed("%s body: %v", op, err)
	}
	results := make([]wire.PropertyResult, 0, len(entries))
	for _, e := range entries {
		if e.Status == nil || e.ID == nil {
			return nil, wire.MissingField(op, "status and id in every entry")
		}
		r := wire.PropertyResult{Status: wire.ParseStatus(*e.Status), ID: *e.ID}
		if e.Value != nil {
			r.Value = *e.Value
		}
		results = append(results, r)
	}
	return results, nil
}

func decodeStatuses(op wire.Operation, body string) ([]wire.PropertyStatus, error) {
	results, err := decodeResults(op, body)
	if err != nil {
		return nil, err
	}
	statuses := make([]wire.PropertyStatus, len(results))
	for i, r := range results {
		statuses[i] = wire.PropertyStatus{Status: r.Status, ID: r.ID}
	}
	return statuses, nil
}

func encodeResults(results []wire.PropertyResult) (string, error) {
	entries := make([]jsonResult, len(results))
	for i, r := range results {
		status, id := r.Status.Text(), r.ID
		entries[i] = jsonResult{Status: &status, ID: &id}
		if !r.Value.IsAbsent() {
			v := r.Value
			entries[i].Value = &v
		}
	}
	b, err := json.Marshal(entries)
	return string(b), err
}

func encodeStatuses(statuses []wire.PropertyStatus) (string, error) {
	results := make([]wire.PropertyResult, len(statuses))
	for i, s := range statuses {
		results[i] = wire.PropertyResult{Status: s.Status, ID: s.ID}
	}
	return encodeResults(results)
}

func decodeMessages(body string) ([]wire.DeviceMessage, error) {
	var entries []jsonMessage
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, wire.Malformed("%s body: %v", wire.OpMessagesRead, err)
	}
	messages := make([]wire.DeviceMessage, 0, len(entries))
	for _, e := range entries {
		ts, err := wire.ParseTimestamp(e.Timestamp)
		if err != nil {
			return nil, wire.Malformed("%s body: %v", wire.OpMessagesRead, err)
		}
		messages = append(messages, wire.DeviceMessage{
			Timestamp: ts,
			AccessID:  e.AccessID,
			DeviceID:  e.DeviceID,
			MessageID: e.MessageID,
			Message:   e.Message,
		})
	}
	return messages, nil
}

func encodeMessages(messages []wire.DeviceMessage) (string, error) {
	entries := make([]jsonMessage, len(messages))
	for i, m := range messages {
		entries[i] = jsonMessage{
			AccessID:  m.AccessID,
			DeviceID:  m.DeviceID,
			Message:   m.Message,
			MessageID: m.MessageID,
			Timestamp: wire.FormatTimestamp(m.Timestamp),
		}
	}
	b, err := json.Marshal(entries)
	return string(b), err
}
