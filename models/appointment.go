// models/appointment.go
package models

import (
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const AppointmentTable = "appointments"

// Format 对应 Postgres 枚举 appointment_format
type Format string

const (
	FormatOnline  Format = "ONLINE"
	FormatOffline Format = "OFFLINE"
)

func (f Format) Valid() bool { return f == FormatOnline || f == FormatOffline }

type Appointment struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"not null" json:"description"`
	Format      Format    `gorm:"type:appointment_format;not null" json:"format"`
	Address     *string   `json:"address"`
	Link        *string   `json:"link"`
	Date        NaiveTime `gorm:"type:timestamp;not null;index" json:"date"`
	Duration    int64     `gorm:"not null" json:"duration"` // 秒
}

func (Appointment) TableName() string { return AppointmentTable }

// NewAppointment 创建请求体
type NewAppointment struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Format      Format    `json:"format" binding:"required"`
	Address     *string   `json:"address"`
	Link        *string   `json:"link"`
	Date        NaiveTime `json:"date"`
	Duration    int64     `json:"duration" binding:"gte=0"`
}

// Normalize checks the format-dependent fields and returns the appointment
// to insert. The field that does not belong to the format is dropped.
func (n NewAppointment) Normalize(id string) (*Appointment, error) {
	if !n.Format.Valid() {
		return nil, fmt.Errorf("format must be %s or %s", FormatOnline, FormatOffline)
	}
	if n.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	a := &Appointment{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		Format:      n.Format,
		Date:        n.Date,
		Duration:    n.Duration,
	}
	switch n.Format {
	case FormatOnline:
		if n.Link == nil {
			return nil, fmt.Errorf("link is required for %s appointments", FormatOnline)
		}
		link := strings.TrimSpace(*n.Link)
		if err := ValidateHTTPURL(link); err != nil {
			return nil, fmt.Errorf("link: %w", err)
		}
		a.Link = &link
	case FormatOffline:
		if n.Address == nil || strings.TrimSpace(*n.Address) == "" {
			return nil, fmt.Errorf("address is required for %s appointments", FormatOffline)
		}
		addr := strings.TrimSpace(*n.Address)
		a.Address = &addr
	}
	return a, nil
}

// ValidateHTTPURL accepts absolute http and https URLs only.
func ValidateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// NaiveTimeLayout 无时区，按 UTC 解释
const NaiveTimeLayout = "2006-01-02T15:04:05"

// NaiveTime is a UTC timestamp serialized without a zone offset.
type NaiveTime struct{ time.Time }

func NewNaiveTime(t time.Time) NaiveTime { return NaiveTime{t.UTC().Truncate(time.Microsecond)} }

func ParseNaiveTime(s string) (NaiveTime, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewNaiveTime(t), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", s); err == nil {
		return NewNaiveTime(t), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return NewNaiveTime(t), nil
		}
	}
	return NaiveTime{}, fmt.Errorf("invalid date %q, want %s", s, NaiveTimeLayout)
}

func (t NaiveTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format("2006-01-02T15:04:05.999999") + `"`), nil
}

func (t *NaiveTime) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*t = NaiveTime{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	v, err := ParseNaiveTime(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t NaiveTime) Value() (driver.Value, error) { return t.UTC(), nil }

func (t *NaiveTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = NaiveTime{}
		return nil
	case time.Time:
		// timestamp without time zone: 读出来的时区信息无意义，按 UTC 墙上时间处理
		*t = NaiveTime{time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)}
		return nil
	case string:
		p, err := ParseNaiveTime(v)
		if err != nil {
			return err
		}
		*t = p
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into NaiveTime", src)
	}
}
