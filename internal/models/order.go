package models

import "fmt"

// Unset marks a draft field the customer has not provided yet.
// Rendering turns it into the catalog's placeholder text.
const Unset = ""

// Field identifies one of the four order draft fields
type Field int

const (
	FieldName Field = iota
	FieldAddress
	FieldOrder
	FieldPayment
)

// Fields lists every draft field in display order
var Fields = []Field{FieldName, FieldAddress, FieldOrder, FieldPayment}

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldAddress:
		return "address"
	case FieldOrder:
		return "order"
	case FieldPayment:
		return "payment"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// OrderDraft is the evolving order record for one chat.
// Every field is always present; a missing value is Unset.
type OrderDraft struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Order   string `json:"order"`
	Payment string `json:"payment"`
}

// NewOrderDraft returns a draft with every field Unset
func NewOrderDraft() OrderDraft {
	return OrderDraft{Name: Unset, Address: Unset, Order: Unset, Payment: Unset}
}

// Get returns the value stored for a field
func (d OrderDraft) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldAddress:
		return d.Address
	case FieldOrder:
		return d.Order
	case FieldPayment:
		return d.Payment
	}
	return Unset
}

// With returns a copy of the draft with one field replaced
func (d OrderDraft) With(f Field, value string) OrderDraft {
	switch f {
	case FieldName:
		d.Name = value
	case FieldAddress:
		d.Address = value
	case FieldOrder:
		d.Order = value
	case FieldPayment:
		d.Payment = value
	}
	return d
}

// IsSet reports whether the customer has provided a value for the field
func (d OrderDraft) IsSet(f Field) bool {
	return d.Get(f) != Unset
}
