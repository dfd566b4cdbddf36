package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/diary-replier/internal/core/errors"
)

// Diary text bounds, counted in runes.
const (
	MinTextLength = 2
	MaxTextLength = 8000
)

// Recognized meta keys.
const (
	MetaPreset   = "preset"
	MetaMood     = "mood"
	MetaLongMode = "long_mode"
)

// Tone values.
const (
	ToneFriend = "friend"
	ToneMentor = "mentor"
)

// Length preferences.
const (
	LengthShort  = "short"
	LengthNormal = "normal"
	LengthBoth   = "both"
)

// Long-mode options. An empty value lets the orchestrator decide by length.
const (
	LongModeOff  = "off"
	LongModeFull = "full"
)

// Options carries per-request style directives.
type Options struct {
	Tone     string `json:"tone,omitempty"`
	Length   string `json:"length,omitempty"`
	LongMode string `json:"long_mode,omitempty"`
}

// Normalize lowercases the options and fills defaults.
func (o Options) Normalize() Options {
	o.Tone = strings.ToLower(strings.TrimSpace(o.Tone))
	o.Length = strings.ToLower(strings.TrimSpace(o.Length))
	o.LongMode = strings.ToLower(strings.TrimSpace(o.LongMode))

	if o.Tone == "" {
		o.Tone = ToneFriend
	}

	if o.Length == "" {
		o.Length = LengthBoth
	}

	return o
}

// Validate checks that every option holds a known value.
func (o Options) Validate() error {
	n := o.Normalize()

	switch n.Tone {
	case ToneFriend, ToneMentor:
	default:
		return fmt.Errorf("%w: tone %q", errors.ErrInvalidInput, o.Tone)
	}

	switch n.Length {
	case LengthShort, LengthNormal, LengthBoth:
	default:
		return fmt.Errorf("%w: length %q", errors.ErrInvalidInput, o.Length)
	}

	switch n.LongMode {
	case "", LongModeOff, LongModeFull:
	default:
		return fmt.Errorf("%w: long_mode %q", errors.ErrInvalidInput, o.LongMode)
	}

	return nil
}

// WantShort reports whether the short reply was requested.
func (o Options) WantShort() bool {
	l := o.Normalize().Length
	return l == LengthShort || l == LengthBoth
}

// WantNormal reports whether the normal reply was requested.
func (o Options) WantNormal() bool {
	l := o.Normalize().Length
	return l == LengthNormal || l == LengthBoth
}

// DiaryInput is one diary entry submitted for a reply.
type DiaryInput struct {
	Text    string         `json:"text"`
	UserID  string         `json:"user_id,omitempty"`
	Date    string         `json:"date,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	Options Options        `json:"options"`
}

// Validate enforces the text bounds and option values.
func (in DiaryInput) Validate() error {
	trimmed := strings.TrimSpace(in.Text)
	if trimmed == "" {
		return errors.ErrEmptyText
	}

	if n := utf8.RuneCountInString(trimmed); n < MinTextLength {
		return fmt.Errorf("%w: %d < %d", errors.ErrTextTooShort, n, MinTextLength)
	}

	if n := utf8.RuneCountInString(in.Text); n > MaxTextLength {
		return fmt.Errorf("%w: %d > %d", errors.ErrTextTooLong, n, MaxTextLength)
	}

	if in.Date != "" {
		if _, err := in.EntryDate(); err != nil {
			return err
		}
	}

	return in.Options.Validate()
}

// EntryDate parses the free-form date field. A zero time is returned when the
// field is empty.
func (in DiaryInput) EntryDate() (time.Time, error) {
	if strings.TrimSpace(in.Date) == "" {
		return time.Time{}, nil
	}

	t, err := dateparse.ParseAny(strings.TrimSpace(in.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", errors.ErrInvalidInput, in.Date, err)
	}

	return t, nil
}

// MetaString returns a trimmed string meta value, or "" when absent.
func (in DiaryInput) MetaString(key string) string {
	v, ok := in.Meta[key]
	if !ok || v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// MetaBool interprets a meta value as a flag. Strings such as "1", "true",
// "yes", "on" and "full" count as set.
func (in DiaryInput) MetaBool(key string) bool {
	v, ok := in.Meta[key]
	if !ok || v == nil {
		return false
	}

	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		if s == "yes" || s == "on" || s == LongModeFull {
			return true
		}

		b, err := strconv.ParseBool(s)

		return err == nil && b
	default:
		return false
	}
}
