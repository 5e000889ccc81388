package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address as captured on a user profile or stamped onto an order.
type Address struct {
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country" validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

// Normalize trims surrounding whitespace from every text field.
func (a Address) Normalize() Address {
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)
	return a
}

// Validate reports the first missing required field.
func (a Address) Validate() error {
	n := a.Normalize()
	switch {
	case n.Street == "":
		return fmt.Errorf("address: missing street")
	case n.City == "":
		return fmt.Errorf("address: missing city")
	case n.ZipCode == "":
		return fmt.Errorf("address: missing zipCode")
	case n.Country == "":
		return fmt.Errorf("address: missing country")
	}
	return nil
}

// Value stores the address as a JSON document.
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a.Normalize())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON document column.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
