package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"plantwatch/internal/models"
)

// StaticDirectory serves a fixed recipient list. Used for local
// development and tests when no database is configured.
type StaticDirectory struct {
	recipients []models.Recipient
}

// NewStaticDirectory creates a directory over a fixed recipient slice
func NewStaticDirectory(recipients []models.Recipient) *StaticDirectory {
	return &StaticDirectory{recipients: recipients}
}

// LoadStaticDirectory reads recipients from a YAML file:
//
//	recipients:
//	  - id: r-1
//	    name: Shift Supervisor
//	    phone: "+10000000001"
//	    chat_handle: "@shift-super"
//	    opt_sms: true
//	    opt_chat: true
//	    active: true
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recipients: read %s: %w", path, err)
	}

	var file struct {
		Recipients []models.Recipient `yaml:"recipients"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("recipients: parse %s: %w", path, err)
	}
	return NewStaticDirectory(file.Recipients), nil
}

// ListActiveRecipients returns the active subset of the fixed list
func (d *StaticDirectory) ListActiveRecipients(_ context.Context) ([]models.Recipient, error) {
	out := make([]models.Recipient, 0, len(d.recipients))
	for _, r := range d.recipients {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close is a no-op
func (d *StaticDirectory) Close() error { return nil }
