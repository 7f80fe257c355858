package fields

import (
	"fmt"
	"time"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/timezones"
)

// Timezone is a select over IANA zone names whose native value is a
// *time.Location.
type Timezone struct {
	Select
}

// NewTimezone returns a timezone select. Without zones it offers the
// embedded zone list.
func NewTimezone(name string, zones []string, opts ...Option) (*Timezone, error) {
	if len(zones) == 0 {
		var err error
		if zones, err = timezones.Default(); err != nil {
			return nil, fmt.Errorf("fields: timezone %q: %w", name, err)
		}
	}
	for _, zone := range zones {
		if _, err := time.LoadLocation(zone); err != nil {
			return nil, fmt.Errorf("fields: timezone %q: %q: %w", name, zone, ErrInvalidArgument)
		}
	}
	return &Timezone{Select: Select{Base: newBase(name, opts), Options: Choices(zones...)}}, nil
}

func (f *Timezone) Kind() Kind { return KindTimezone }

func (f *Timezone) GetValue(m *input.Model) (any, error) {
	v, err := f.Select.GetValue(m)
	if err != nil || v == nil {
		return nil, err
	}
	loc, err := time.LoadLocation(v.(string))
	if err != nil {
		return nil, fmt.Errorf("fields: timezone %q: %v: %w", f.Name(), err, ErrTypeConversion)
	}
	return loc, nil
}

// SetValue accepts a *time.Location or a zone name.
func (f *Timezone) SetValue(m *input.Model, value any) error {
	if loc, ok := value.(*time.Location); ok {
		if loc == nil {
			return m.SetInput(f, nil)
		}
		value = loc.String()
	}
	return f.Select.SetValue(m, value)
}
