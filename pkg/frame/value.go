package frame

import "fmt"

// Value is the closed set of types a frame field can hold.
// The unexported marker keeps other packages from adding variants.
type Value interface {
	Kind() Kind
	isValue()
}

// Kind names a Value variant.
type Kind uint8

const (
	KindDouble Kind = iota + 1
	KindVectorDouble
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "Double"
	case KindVectorDouble:
		return "VectorDouble"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Double is a scalar float64 field.
type Double float64

func (Double) Kind() Kind { return KindDouble }
func (Double) isValue()   {}

// VectorDouble is an ordered sequence of float64.
type VectorDouble []float64

func (VectorDouble) Kind() Kind { return KindVectorDouble }
func (VectorDouble) isValue()   {}
