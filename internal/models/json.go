package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON is a generic JSON object column.
type JSON map[string]interface{}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner. A malformed column is surfaced as an
// error, never silently replaced with an empty value.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, j)
}

// PaymentIntentInfo is the typed payment_intent_info column on orders.
// It records how the order's payment was initialized.
type PaymentIntentInfo struct {
	Gateway      string `json:"gateway,omitempty"`
	TxRef        string `json:"tx_ref,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// Value implements driver.Valuer.
func (p PaymentIntentInfo) Value() (driver.Value, error) {
	if p == (PaymentIntentInfo{}) {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PaymentIntentInfo) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentIntentInfo{}
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*p = PaymentIntentInfo{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// MonthTotal is one slot of the 12-month revenue series.
type MonthTotal struct {
	Total Money `json:"total"`
}

// MonthSeries is the months column on analytics rows: twelve slots,
// January first.
type MonthSeries []MonthTotal

// NewMonthSeries returns a zeroed 12-slot series.
func NewMonthSeries() MonthSeries {
	return make(MonthSeries, 12)
}

// Value implements driver.Valuer.
func (m MonthSeries) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *MonthSeries) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, m)
}

// StatusCounts is the today_order_status column: order-status label to count.
type StatusCounts map[string]int64

// Value implements driver.Valuer.
func (s StatusCounts) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StatusCounts) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	raw, err := jsonColumnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

func jsonColumnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}
