package store

import (
	"encoding/json"

	"coldmailer/internal/core"
)

// jsonCodec stores contacts as a nested document, one object per contact
// with custom fields kept as a real map.
type jsonCodec struct{}

type jsonDocument struct {
	Contacts []*core.Contact `json:"contacts"`
}

func (jsonCodec) decode(data []byte) ([]*core.Contact, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Contacts, nil
}

func (jsonCodec) encode(contacts []*core.Contact) ([]byte, error) {
	if contacts == nil {
		contacts = []*core.Contact{}
	}
	return json.MarshalIndent(jsonDocument{Contacts: contacts}, "", "  ")
}
