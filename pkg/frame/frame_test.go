package frame

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedAccess(t *testing.T) {
	f := New(DAQ, 7)
	f.Put("Mean", Double(2.5))
	f.Put("Vector", VectorDouble{1, 2, 3})

	d, err := f.Double("Mean")
	require.NoError(t, err)
	assert.Equal(t, 2.5, d)

	vec, err := f.VectorDouble("Vector")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vec)

	assert.Equal(t, []string{"Mean", "Vector"}, f.Keys())
	assert.Equal(t, DAQ, f.Stop())
	assert.Equal(t, uint64(7), f.Index())
}

func TestMissingField(t *testing.T) {
	f := New(DAQ, 0)

	_, err := f.VectorDouble("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))

	var mfe *MissingFieldError
	require.True(t, errors.As(err, &mfe))
	assert.Equal(t, "nope", mfe.Key)
}

func TestTypeMismatchDoesNotCoerce(t *testing.T) {
	f := New(DAQ, 0)
	f.Put("Scalar", Double(1))
	f.Put("Vector", VectorDouble{1})

	_, err := f.VectorDouble("Scalar")
	assert.True(t, errors.Is(err, ErrType))

	_, err = f.Double("Vector")
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, KindDouble, te.Want)
	assert.Equal(t, KindVectorDouble, te.Got)
}

func TestPutReplaces(t *testing.T) {
	f := New(Physics, 1)
	f.Put("x", Double(1))
	f.Put("x", Double(2))

	d, err := f.Double("x")
	require.NoError(t, err)
	assert.Equal(t, 2.0, d)
	assert.Equal(t, 1, f.Len())

	assert.True(t, f.Delete("x"))
	assert.False(t, f.Delete("x"))
	assert.False(t, f.Has("x"))
}

func TestCloneIsDeep(t *testing.T) {
	f := New(DAQ, 3)
	f.Put("v", VectorDouble{1, 2})

	c := f.Clone()
	vec, _ := c.VectorDouble("v")
	vec[0] = 99

	orig, _ := f.VectorDouble("v")
	assert.Equal(t, 1.0, orig[0])
	assert.Equal(t, f.Index(), c.Index())
}

func TestChecksum(t *testing.T) {
	a := New(DAQ, 1)
	a.Put("v", VectorDouble{1, 2})
	a.Put("m", Double(1.5))

	b := New(DAQ, 1)
	b.Put("m", Double(1.5))
	b.Put("v", VectorDouble{1, 2})

	assert.Equal(t, a.Checksum(), b.Checksum(), "insertion order must not matter")

	b.Put("m", Double(1.6))
	assert.NotEqual(t, a.Checksum(), b.Checksum())

	c := a.Clone()
	assert.Equal(t, a.Checksum(), c.Checksum())
}

func TestParseStop(t *testing.T) {
	s, err := ParseStop("daq")
	require.NoError(t, err)
	assert.Equal(t, DAQ, s)

	_, err = ParseStop("bogus")
	assert.Error(t, err)

	assert.Equal(t, DAQ, New("", 0).Stop())
}
