package fields

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// LocalLayout is the layout of HTML datetime-local inputs.
const LocalLayout = "2006-01-02T15:04"

var errUnparsable = errors.New("unparsable date/time")

// DateTime is a text input holding a date and/or time in a fixed layout,
// interpreted in Location.
type DateTime struct {
	Base

	// Layout is a Go reference layout such as "2006-01-02" or "2/1/2006".
	Layout   string
	Location *time.Location

	Attrs render.Attrs

	inputType string
}

// NewDateTime returns a date/time field. A nil location means time.Local.
func NewDateTime(name, layout string, loc *time.Location, opts ...Option) *DateTime {
	if loc == nil {
		loc = time.Local
	}
	return &DateTime{
		Base:      newBase(name, opts),
		Layout:    layout,
		Location:  loc,
		inputType: "text",
	}
}

func (f *DateTime) Kind() Kind { return KindDateTime }

// Parse converts raw input to a time.Time. The input must parse in Layout
// and format back to exactly the same string, which rejects dates such as
// 2024-02-30 and unpadded variants of padded layouts.
func (f *DateTime) Parse(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("fields: datetime %q: %T input: %w", f.Name(), raw, errUnparsable)
	}
	t, err := time.ParseInLocation(f.Layout, s, f.location())
	if err != nil || t.Format(f.Layout) != s {
		return nil, fmt.Errorf("fields: datetime %q: %q: %w", f.Name(), s, errUnparsable)
	}
	return t, nil
}

func (f *DateTime) CreateValidators() []validation.Validator {
	return append(f.requiredValidators(), validation.DateTime(f))
}

func (f *DateTime) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.InputFor(f, f.inputType, render.Merge(f.Attrs, attrs))
}

func (f *DateTime) GetValue(m *input.Model) (any, error) {
	t, ok, err := f.Time(m)
	if err != nil || !ok {
		return nil, err
	}
	return t, nil
}

// Time returns the parsed input. ok is false when nothing was submitted.
func (f *DateTime) Time(m *input.Model) (time.Time, bool, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := f.Parse(s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrTypeConversion, err)
	}
	return t.(time.Time), true, nil
}

// SetValue accepts a time.Time or a unix timestamp in seconds.
func (f *DateTime) SetValue(m *input.Model, value any) error {
	t, ok, err := nativeTime(f, value)
	if err != nil {
		return err
	}
	if !ok {
		return m.SetInput(f, nil)
	}
	return m.SetInput(f, t.In(f.location()).Format(f.Layout))
}

func (f *DateTime) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// DateTimeLocal is a datetime-local input.
type DateTimeLocal struct {
	DateTime
}

// NewDateTimeLocal returns a datetime-local field using LocalLayout.
func NewDateTimeLocal(name string, loc *time.Location, opts ...Option) *DateTimeLocal {
	f := &DateTimeLocal{DateTime: *NewDateTime(name, LocalLayout, loc, opts...)}
	f.inputType = "datetime-local"
	return f
}

func (f *DateTimeLocal) Kind() Kind { return KindDateTimeLocal }

// Date select keys.
const (
	KeyYear  = "year"
	KeyMonth = "month"
	KeyDay   = "day"
)

// DateSelect renders a date as three drop-downs submitting
// name[year], name[month] and name[day].
type DateSelect struct {
	Base

	Location *time.Location

	// MinYear and MaxYear bound the year drop-down and the accepted years.
	MinYear int
	MaxYear int

	// Order lists KeyYear, KeyMonth and KeyDay in display order.
	Order []string

	// Classes added to each drop-down, by key.
	Classes map[string]string

	// Catalog and Locale supply month names and prompts; nil uses
	// lang.Default().
	Catalog *lang.Catalog
	Locale  string
}

// NewDateSelect returns a date select covering the last hundred years and
// the next five.
func NewDateSelect(name string, loc *time.Location, opts ...Option) *DateSelect {
	if loc == nil {
		loc = time.Local
	}
	year := time.Now().In(loc).Year()
	return &DateSelect{
		Base:     newBase(name, opts),
		Location: loc,
		MinYear:  year - 100,
		MaxYear:  year + 5,
		Order:    []string{KeyDay, KeyMonth, KeyYear},
		Classes:  map[string]string{KeyYear: KeyYear, KeyMonth: KeyMonth, KeyDay: KeyDay},
	}
}

// ParseOrder converts a short order such as "ymd" or "dmy" to keys.
func ParseOrder(order string) ([]string, error) {
	keys := map[rune]string{'y': KeyYear, 'm': KeyMonth, 'd': KeyDay}
	out := make([]string, 0, 3)
	seen := make(map[rune]bool, 3)
	for _, c := range strings.ToLower(order) {
		key, ok := keys[c]
		if !ok || seen[c] {
			return nil, fmt.Errorf("fields: date order %q: %w", order, ErrInvalidArgument)
		}
		seen[c] = true
		out = append(out, key)
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("fields: date order %q: %w", order, ErrInvalidArgument)
	}
	return out, nil
}

func (f *DateSelect) Kind() Kind { return KindDateSelect }

// Parse converts a {year, month, day} map to midnight of that date in
// Location. Impossible dates and years outside [MinYear, MaxYear] fail.
func (f *DateSelect) Parse(raw any) (any, error) {
	parts, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fields: date select %q: %T input: %w", f.Name(), raw, errUnparsable)
	}
	var ymd [3]int
	for i, key := range []string{KeyYear, KeyMonth, KeyDay} {
		s, _ := parts[key].(string)
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("fields: date select %q: %s: %w", f.Name(), key, errUnparsable)
		}
		ymd[i] = n
	}
	year, month, day := ymd[0], ymd[1], ymd[2]
	if year < f.MinYear || year > f.MaxYear {
		return nil, fmt.Errorf("fields: date select %q: year %d out of range: %w", f.Name(), year, errUnparsable)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, f.location())
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil, fmt.Errorf("fields: date select %q: %04d-%02d-%02d: %w", f.Name(), year, month, day, errUnparsable)
	}
	return t, nil
}

func (f *DateSelect) CreateValidators() []validation.Validator {
	return append(f.requiredValidators(), validation.DateTime(f))
}

func (f *DateSelect) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	catalog := f.Catalog
	if catalog == nil {
		catalog = lang.Default()
	}
	selects := map[string]*Select{
		KeyYear:  NewSelect(KeyYear, f.yearOptions()),
		KeyMonth: NewSelect(KeyMonth, monthOptions(catalog.Months(f.Locale))),
		KeyDay:   NewSelect(KeyDay, rangeOptions(1, 31)),
	}
	if !r.IsRequired(f) {
		for key, sel := range selects {
			sel.Prompt = catalog.Text(f.Locale, key, nil)
		}
	}

	// Absent or scalar input renders empty drop-downs from a scratch model so
	// rendering never writes into the submitted one.
	target := r
	if _, ok := r.Model.Input(f).(map[string]any); !ok {
		scoped := *r
		scoped.Model = input.New()
		target = &scoped
	}

	var b strings.Builder
	err := target.Visit(f, func(*input.Model) error {
		for _, key := range f.Order {
			sel, ok := selects[key]
			if !ok {
				return fmt.Errorf("fields: date select %q: order key %q: %w", f.Name(), key, ErrInvalidArgument)
			}
			b.WriteString(target.Render(sel, mergeClass(attrs, f.Classes[key])))
		}
		return nil
	})
	if err != nil {
		return ""
	}
	return b.String()
}

func (f *DateSelect) GetValue(m *input.Model) (any, error) {
	t, ok, err := f.Time(m)
	if err != nil || !ok {
		return nil, err
	}
	return t, nil
}

// Time returns the parsed input. ok is false when nothing was submitted.
func (f *DateSelect) Time(m *input.Model) (time.Time, bool, error) {
	raw := m.Input(f)
	if raw == nil {
		return time.Time{}, false, nil
	}
	t, err := f.Parse(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrTypeConversion, err)
	}
	return t.(time.Time), true, nil
}

// SetValue accepts a time.Time or a unix timestamp in seconds.
func (f *DateSelect) SetValue(m *input.Model, value any) error {
	t, ok, err := nativeTime(f, value)
	if err != nil {
		return err
	}
	if !ok {
		return m.SetInput(f, nil)
	}
	t = t.In(f.location())
	return m.SetInput(f, map[string]any{
		KeyYear:  strconv.Itoa(t.Year()),
		KeyMonth: strconv.Itoa(int(t.Month())),
		KeyDay:   strconv.Itoa(t.Day()),
	})
}

func (f *DateSelect) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

func (f *DateSelect) yearOptions() Options {
	return rangeOptions(f.MinYear, f.MaxYear)
}

func rangeOptions(from, to int) Options {
	var out Options
	for n := from; n <= to; n++ {
		s := strconv.Itoa(n)
		out = append(out, Choice{Value: s, Label: s})
	}
	return out
}

func monthOptions(names []string) Options {
	out := make(Options, 12)
	for i := range out {
		value := strconv.Itoa(i + 1)
		label := value
		if i < len(names) {
			label = names[i]
		}
		out[i] = Choice{Value: value, Label: label}
	}
	return out
}

func mergeClass(attrs render.Attrs, class string) render.Attrs {
	if class == "" {
		return attrs
	}
	return render.Merge(attrs, render.Attrs{"class": class})
}

func nativeTime(f input.Named, value any) (time.Time, bool, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, false, nil
		}
		return *v, true, nil
	case int64:
		return time.Unix(v, 0), true, nil
	case int:
		return time.Unix(int64(v), 0), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("fields: %q expects a time.Time or unix seconds, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}
