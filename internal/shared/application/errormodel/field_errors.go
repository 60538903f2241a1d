package errormodel

import (
	"bytes"
	"encoding/json"

	"github.com/felixgeelhaar/venues/internal/shared/domain"
)

// FieldMessages holds the messages reported for a single field.
type FieldMessages struct {
	Field    string
	Messages []string
}

// FieldErrors is an ordered mapping of field name to messages.
// It serializes as a JSON object whose keys keep first-seen order.
type FieldErrors []FieldMessages

// GroupFieldErrors groups failures by field, preserving the order in which
// fields first appear and the order of messages within each field.
func GroupFieldErrors(failures []domain.FieldError) FieldErrors {
	grouped := make(FieldErrors, 0, len(failures))
	index := make(map[string]int, len(failures))
	for _, f := range failures {
		i, ok := index[f.Field]
		if !ok {
			i = len(grouped)
			index[f.Field] = i
			grouped = append(grouped, FieldMessages{Field: f.Field})
		}
		grouped[i].Messages = append(grouped[i].Messages, f.Message)
	}
	return grouped
}

// Get returns the messages for field.
func (fe FieldErrors) Get(field string) []string {
	for _, f := range fe {
		if f.Field == field {
			return f.Messages
		}
	}
	return nil
}

// Fields returns the field names in order.
func (fe FieldErrors) Fields() []string {
	names := make([]string, len(fe))
	for i, f := range fe {
		names[i] = f.Field
	}
	return names
}

// MarshalJSON encodes the fields as an object in insertion order.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fe {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}
		messages := f.Messages
		if messages == nil {
			messages = []string{}
		}
		value, err := json.Marshal(messages)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object into FieldErrors, keeping key order.
func (fe *FieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out FieldErrors
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, _ := tok.(string)
		var messages []string
		if err := dec.Decode(&messages); err != nil {
			return err
		}
		out = append(out, FieldMessages{Field: field, Messages: messages})
	}
	*fe = out
	return nil
}
