// Package plugin describes an instrument to the engine: its metadata, its
// parameter catalog and the DSP it contributes per voice and per block.
package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// namespace seeds the name-based UIDs derived from Info.ID.
var namespace = uuid.MustParse("5b0a6f1e-8c1d-4f43-9a52-2f1c7d3e9b64")

// Info contains instrument metadata.
type Info struct {
	ID       string // reverse-DNS identifier, e.g. "com.example.synth"
	Name     string
	Version  string
	Vendor   string
	Category string // "Instrument", "Fx"
}

// UID derives a stable identifier from ID. The same ID always yields the
// same UID.
func (i Info) UID() uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(i.ID))
}

// Validate checks the fields a host or state file relies on.
func (i Info) Validate() error {
	var errs []error
	if i.ID == "" || strings.ContainsAny(i.ID, " \t\n") {
		errs = append(errs, fmt.Errorf("plugin: invalid id %q", i.ID))
	}
	if i.Name == "" {
		errs = append(errs, errors.New("plugin: empty name"))
	}
	return errors.Join(errs...)
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Version, i.ID)
}
