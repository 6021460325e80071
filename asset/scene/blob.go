package scene

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

// Blobs are stored as a {count, elemSize} uint64 header followed by
// count*elemSize little-endian bytes.
var byteOrder = binary.LittleEndian

const (
	blobHeaderSize = 16
	blobChunkElems = 1 << 16
)

// Get the encoded size of a single element of the given slice.
func ElemSize(slice interface{}) int {
	t := reflect.TypeOf(slice)
	if t.Kind() != reflect.Slice {
		return -1
	}
	return binary.Size(reflect.Zero(t.Elem()).Interface())
}

// Write a slice (or a pointer to a slice) of fixed-size values as a blob.
func WriteBlob(w io.Writer, slice interface{}) error {
	v := reflect.ValueOf(slice)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
		slice = v.Interface()
	}
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("blob: expected a slice; got %s", v.Kind())
	}

	elemSize := ElemSize(slice)
	if elemSize <= 0 {
		return fmt.Errorf("blob: %s is not a fixed-size type", v.Type().Elem())
	}

	header := [2]uint64{uint64(v.Len()), uint64(elemSize)}
	if err := binary.Write(w, byteOrder, header); err != nil {
		return err
	}
	if v.Len() == 0 {
		return nil
	}
	return binary.Write(w, byteOrder, slice)
}

// Read a blob into the slice pointed to by target. The element size recorded
// in the blob header must match the size of the target element type.
func ReadBlob(r io.Reader, target interface{}) error {
	return ReadBlobLimit(r, target, math.MaxInt64)
}

// ReadBlobLimit behaves like ReadBlob but rejects blobs whose header claims
// more than maxBytes of encoded data, header included. Elements are decoded in
// bounded chunks so a truncated stream fails before its claimed size is
// allocated.
func ReadBlobLimit(r io.Reader, target interface{}, maxBytes uint64) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("blob: expected a pointer to a slice; got %T", target)
	}

	var header [2]uint64
	if err := binary.Read(r, byteOrder, &header); err != nil {
		return err
	}

	sliceType := ptr.Elem().Type()
	expSize := binary.Size(reflect.Zero(sliceType.Elem()).Interface())
	if expSize <= 0 {
		return fmt.Errorf("blob: %s is not a fixed-size type", sliceType.Elem())
	}
	if header[1] != uint64(expSize) {
		return fmt.Errorf("blob: element size mismatch for %s; expected %d; got %d", sliceType.Elem(), expSize, header[1])
	}

	var payloadBytes uint64
	if maxBytes > blobHeaderSize {
		payloadBytes = maxBytes - blobHeaderSize
	}
	if header[0] > payloadBytes/uint64(expSize) || int(header[0]) < 0 {
		return fmt.Errorf("blob: element count %d exceeds available data (%d bytes)", header[0], payloadBytes)
	}

	count := int(header[0])
	slice := reflect.MakeSlice(sliceType, 0, min(count, blobChunkElems))
	for read := 0; read < count; {
		n := min(count-read, blobChunkElems)
		chunk := reflect.MakeSlice(sliceType, n, n)
		if err := binary.Read(r, byteOrder, chunk.Interface()); err != nil {
			return fmt.Errorf("blob: read %d of %d elements: %s", read, count, err)
		}
		slice = reflect.AppendSlice(slice, chunk)
		read += n
	}
	ptr.Elem().Set(slice)
	return nil
}
