package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Purchase — элемент списка покупок маркетплейса в том виде,
// в котором он приходит из API. Указатели позволяют отличить
// отсутствующее поле от пустого значения.
type Purchase struct {
	License        *string       `json:"license" validate:"required"`
	Code           *string       `json:"code" validate:"required"`
	SoldAt         *string       `json:"sold_at" validate:"required"`
	Amount         *Flex         `json:"amount" validate:"required"`
	SupportAmount  *Flex         `json:"support_amount" validate:"required"`
	SupportedUntil *string       `json:"supported_until" validate:"required"`
	Item           *PurchaseItem `json:"item" validate:"required"`
}

// PurchaseItem — вложенный объект item покупки.
type PurchaseItem struct {
	ID   *Flex   `json:"id" validate:"required"`
	Name *string `json:"name" validate:"required"`
}

// Flex — скаляр, который API отдаёт то строкой, то числом.
type Flex string

// UnmarshalJSON принимает строку или число.
func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("flex: empty value")
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flex(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex: %w", err)
	}
	*f = Flex(n.String())

	return nil
}

// String возвращает значение как строку.
func (f *Flex) String() string {
	if f == nil {
		return ""
	}

	return string(*f)
}
