package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"coldmailer/internal/core"
)

// csvCodec stores contacts as a flat table. Custom fields are packed into
// custom_field_N columns as "key=value" so the file stays spreadsheet-friendly.
type csvCodec struct{}

var csvBaseHeaders = []string{
	"id",
	"email",
	"first_name",
	"last_name",
	"title",
	"company",
	"job_title",
	"department",
	"greeting_style",
	"status",
	"last_contacted",
}

func (csvCodec) decode(data []byte) ([]*core.Contact, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var contacts []*core.Contact
	for _, row := range records[1:] {
		c := &core.Contact{
			ID:            field(row, "id"),
			Email:         field(row, "email"),
			FirstName:     field(row, "first_name"),
			LastName:      field(row, "last_name"),
			Title:         field(row, "title"),
			Company:       field(row, "company"),
			JobTitle:      field(row, "job_title"),
			Department:    field(row, "department"),
			GreetingStyle: core.GreetingStyle(field(row, "greeting_style")),
			Status:        core.ContactStatus(field(row, "status")),
		}
		if c.GreetingStyle == "" {
			c.GreetingStyle = core.GreetingSemiFormal
		}
		if c.Status == "" {
			c.Status = core.StatusPending
		}
		if raw := field(row, "last_contacted"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				c.LastContacted = &ts
			}
		}
		for name, i := range index {
			if !strings.HasPrefix(name, "custom_field_") || i >= len(row) {
				continue
			}
			kv := strings.TrimSpace(row[i])
			if kv == "" {
				continue
			}
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if c.CustomFields == nil {
				c.CustomFields = make(map[string]string)
			}
			c.CustomFields[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

func (csvCodec) encode(contacts []*core.Contact) ([]byte, error) {
	maxCustom := 2
	for _, c := range contacts {
		if len(c.CustomFields) > maxCustom {
			maxCustom = len(c.CustomFields)
		}
	}

	headers := make([]string, 0, len(csvBaseHeaders)+maxCustom)
	headers = append(headers, csvBaseHeaders[:len(csvBaseHeaders)-2]...)
	for i := 1; i <= maxCustom; i++ {
		headers = append(headers, fmt.Sprintf("custom_field_%d", i))
	}
	headers = append(headers, "status", "last_contacted")

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return nil, err
	}
	for _, c := range contacts {
		row := []string{
			c.ID,
			c.Email,
			c.FirstName,
			c.LastName,
			c.Title,
			c.Company,
			c.JobTitle,
			c.Department,
			string(c.GreetingStyle),
		}
		keys := make([]string, 0, len(c.CustomFields))
		for k := range c.CustomFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i := 0; i < maxCustom; i++ {
			if i < len(keys) {
				row = append(row, keys[i]+"="+c.CustomFields[keys[i]])
			} else {
				row = append(row, "")
			}
		}
		row = append(row, string(c.Status))
		if c.LastContacted != nil {
			row = append(row, c.LastContacted.Format(time.RFC3339))
		} else {
			row = append(row, "")
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
