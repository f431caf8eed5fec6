// Package util provides small capabilities shared by the cemi, knxnet and knx
// packages: byte-buffer packing helpers and the Logger capability type. There
// is no package-level logging sink here; callers inject a Logger where they
// need one.
package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

// Packable things know how to serialize themselves into a buffer that is
// already sized to fit them exactly.
type Packable interface {
	Pack(buffer []byte)
}

// Sizable things know their own packed size in bytes.
type Sizable interface {
	Size() uint
}

// Unpackable things know how to parse themselves out of the head of a
// buffer, reporting how many bytes they consumed.
type Unpackable interface {
	Unpack(data []byte) (n uint, err error)
}

// PackSome packs a sequence of heterogeneous values into buffer, one after
// another. Supported values are the unsigned integer kinds (packed
// big-endian), byte slices and byte arrays (copied verbatim) and anything
// implementing Packable, whose size is obtained through Sizable.
func PackSome(buffer []byte, values ...interface{}) {
	offset := 0

	for _, v := range values {
		offset += packOne(buffer[offset:], v)
	}
}

func packOne(buffer []byte, v interface{}) int {
	if p, ok := asPackable(v); ok {
		size := packableSize(v, p)
		p.Pack(buffer[:size])
		return size
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Uint8:
		buffer[0] = uint8(rv.Uint())
		return 1

	case reflect.Uint16:
		binary.BigEndian.PutUint16(buffer, uint16(rv.Uint()))
		return 2

	case reflect.Uint32:
		binary.BigEndian.PutUint32(buffer, uint32(rv.Uint()))
		return 4

	case reflect.Uint64:
		binary.BigEndian.PutUint64(buffer, rv.Uint())
		return 8

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			n := rv.Len()
			reflect.Copy(reflect.ValueOf(buffer[:n]), rv)
			return n
		}
	}

	panic(fmt.Sprintf("util.PackSome: unsupported type %T", v))
}

func asPackable(v interface{}) (Packable, bool) {
	if p, ok := v.(Packable); ok {
		return p, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr || !rv.IsValid() {
		return nil, false
	}

	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)

	if p, ok := ptr.Interface().(Packable); ok {
		return p, true
	}

	return nil, false
}

func packableSize(orig interface{}, p Packable) int {
	if s, ok := orig.(Sizable); ok {
		return int(s.Size())
	}
	if s, ok := p.(Sizable); ok {
		return int(s.Size())
	}
	panic(fmt.Sprintf("util.PackSome: %T implements Pack but not Size", orig))
}

// UnpackSome parses a sequence of values off the head of data, in order,
// returning the number of bytes consumed in total. Each element of ptrs
// must be a pointer to an unsigned integer kind, a byte slice of the
// expected width, or implement Unpackable.
func UnpackSome(data []byte, ptrs ...interface{}) (n uint, err error) {
	offset := uint(0)

	for _, p := range ptrs {
		var consumed uint

		consumed, err = unpackOne(data[offset:], p)
		if err != nil {
			return offset, err
		}

		offset += consumed
	}

	return offset, nil
}

func unpackOne(data []byte, p interface{}) (uint, error) {
	if u, ok := p.(Unpackable); ok {
		return u.Unpack(data)
	}

	rv := reflect.ValueOf(p)

	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		n := rv.Len()
		if len(data) < n {
			return 0, io.ErrUnexpectedEOF
		}
		reflect.Copy(rv, reflect.ValueOf(data[:n]))
		return uint(n), nil
	}

	if rv.Kind() != reflect.Ptr {
		return 0, fmt.Errorf("util.UnpackSome: expected pointer, got %T", p)
	}

	elem := rv.Elem()

	switch elem.Kind() {
	case reflect.Uint8:
		if len(data) < 1 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(data[0]))
		return 1, nil

	case reflect.Uint16:
		if len(data) < 2 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(binary.BigEndian.Uint16(data)))
		return 2, nil

	case reflect.Uint32:
		if len(data) < 4 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(uint64(binary.BigEndian.Uint32(data)))
		return 4, nil

	case reflect.Uint64:
		if len(data) < 8 {
			return 0, io.ErrUnexpectedEOF
		}
		elem.SetUint(binary.BigEndian.Uint64(data))
		return 8, nil

	case reflect.Slice:
		if elem.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		n := elem.Len()
		if len(data) < n {
			return 0, io.ErrUnexpectedEOF
		}
		reflect.Copy(elem, reflect.ValueOf(data[:n]))
		return uint(n), nil

	case reflect.Array:
		if elem.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		n := elem.Len()
		if len(data) < n {
			return 0, io.ErrUnexpectedEOF
		}
		reflect.Copy(elem, reflect.ValueOf(data[:n]))
		return uint(n), nil
	}

	return 0, fmt.Errorf("util.UnpackSome: unsupported type %T", p)
}

// PackString writes s into buffer, zero-padded to width bytes. Strings
// longer than width are truncated; callers that need to know about
// truncation should check len(s) themselves before calling.
func PackString(buffer []byte, width int, s string) {
	b := []byte(s)
	if len(b) > width {
		b = b[:width]
	}

	copy(buffer, b)

	for i := len(b); i < width; i++ {
		buffer[i] = 0
	}
}

// UnpackString reads a zero-terminated (or zero-padded) string out of the
// first width bytes of data.
func UnpackString(data []byte, width int, s *string) (uint, error) {
	if len(data) < width {
		return 0, io.ErrUnexpectedEOF
	}

	end := width
	for i, b := range data[:width] {
		if b == 0 {
			end = i
			break
		}
	}

	*s = string(data[:end])

	return uint(width), nil
}

// Logger is the injectable logging capability. It matches the shape of the
// standard library's *log.Logger so that one can be used directly. Callers
// that don't want diagnostics pass a no-op implementation.
type Logger interface {
	Printf(format string, v ...interface{})
}
