package domain

import (
	"database/sql/driver"
	"fmt"
)

// Column converters used by the series cache. Service and status persist by
// name, item type by its internal integer id.

// Value implements driver.Valuer.
func (s Service) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner. Unknown names are rejected.
func (s *Service) Scan(src any) error {
	name, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan service: %w", err)
	}
	svc := Service(name)
	if !svc.Valid() {
		return fmt.Errorf("scan service: unknown service %q", name)
	}
	*s = svc
	return nil
}

// Value implements driver.Valuer.
func (t ItemType) Value() (driver.Value, error) {
	return int64(t.InternalID()), nil
}

// Scan implements sql.Scanner.
func (t *ItemType) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = ItemTypeForInternalID(int(v))
	case nil:
		*t = ItemTypeUnknown
	default:
		return fmt.Errorf("scan item type: unsupported source %T", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (s UserSeriesStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner. Unrecognized names become StatusUnknown.
func (s *UserSeriesStatus) Scan(src any) error {
	name, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan status: %w", err)
	}
	status := UserSeriesStatus(name)
	if !status.Valid() {
		status = StatusUnknown
	}
	*s = status
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported source %T", src)
	}
}
