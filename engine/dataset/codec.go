package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// headerSize is magic + version + four counts.
const headerSize = 24

// WriteTo writes the little-endian binary form of the dataset:
//
//	header    magic "HIZD", version, string count, slot count, draw count, cluster count
//	strings   per string: u32 byte length, UTF-8 bytes
//	slots     u32 string index per material slot
//	draws     GPUDrawData records
//	clusters  GPUClusterData records
//	instances GPUInstanceData records (same count as clusters)
//
// Parameters:
//   - w: the destination writer
//
// Returns:
//   - int64: bytes written
//   - error: error if the dataset is inconsistent or the write fails
func (d *Dataset) WriteTo(w io.Writer) (int64, error) {
	data, err := d.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// MarshalBinary returns the bytes WriteTo would write.
func (d *Dataset) MarshalBinary() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	for _, n := range []int{len(d.Strings), len(d.MaterialSlots), len(d.Draws), len(d.Clusters)} {
		if uint64(n) > math.MaxUint32 {
			return nil, ErrTooManyItems
		}
	}

	var buf bytes.Buffer
	buf.Grow(d.EncodedSize())

	var u32 [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(u32[:], v)
		buf.Write(u32[:])
	}

	buf.WriteString(Magic)
	put(FormatVersion)
	put(uint32(len(d.Strings)))
	put(uint32(len(d.MaterialSlots)))
	put(uint32(len(d.Draws)))
	put(uint32(len(d.Clusters)))

	for _, s := range d.Strings {
		if uint64(len(s)) > math.MaxUint32 {
			return nil, ErrTooManyItems
		}
		put(uint32(len(s)))
		buf.WriteString(s)
	}
	for _, s := range d.MaterialSlots {
		put(s)
	}
	for i := range d.Draws {
		buf.Write(d.Draws[i].Marshal())
	}
	for i := range d.Clusters {
		buf.Write(d.Clusters[i].Marshal())
	}
	for i := range d.Instances {
		buf.Write(d.Instances[i].Marshal())
	}

	return buf.Bytes(), nil
}

// EncodedSize returns the number of bytes WriteTo produces.
func (d *Dataset) EncodedSize() int {
	n := headerSize
	for _, s := range d.Strings {
		n += 4 + len(s)
	}
	n += 4 * len(d.MaterialSlots)
	n += GPUDrawDataSize * len(d.Draws)
	n += GPUClusterDataSize * len(d.Clusters)
	n += GPUInstanceDataSize * len(d.Instances)
	return n
}

// Decode reads a dataset written by WriteTo and validates every index in it.
//
// Parameters:
//   - r: the source reader
//
// Returns:
//   - *Dataset: the decoded dataset
//   - error: ErrBadMagic, ErrBadVersion, ErrCorrupt, or a read error
func Decode(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return decodeBytes(data)
}

// byteCursor walks a byte slice and reports truncation instead of panicking.
type byteCursor struct {
	data []byte
	off  int
}

func (c *byteCursor) take(n int) ([]byte, error) {
	if n < 0 || len(c.data)-c.off < n {
		return nil, fmt.Errorf("%w: truncated at byte %d", ErrCorrupt, c.off)
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *byteCursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// fits reports whether count records of size bytes remain.
func (c *byteCursor) fits(count uint32, size int) bool {
	return uint64(count)*uint64(size) <= uint64(len(c.data)-c.off)
}

func decodeBytes(data []byte) (*Dataset, error) {
	c := &byteCursor{data: data}

	magic, err := c.take(len(Magic))
	if err != nil || string(magic) != Magic {
		return nil, ErrBadMagic
	}
	version, err := c.u32()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}

	var counts [4]uint32
	for i := range counts {
		if counts[i], err = c.u32(); err != nil {
			return nil, err
		}
	}
	stringCount, slotCount, drawCount, clusterCount := counts[0], counts[1], counts[2], counts[3]

	if !c.fits(stringCount, 4) {
		return nil, fmt.Errorf("%w: string count %d", ErrCorrupt, stringCount)
	}
	d := &Dataset{Strings: make([]string, 0, stringCount)}
	for i := uint32(0); i < stringCount; i++ {
		n, err := c.u32()
		if err != nil {
			return nil, err
		}
		s, err := c.take(int(n))
		if err != nil {
			return nil, err
		}
		d.Strings = append(d.Strings, string(s))
	}

	if !c.fits(slotCount, 4) {
		return nil, fmt.Errorf("%w: slot count %d", ErrCorrupt, slotCount)
	}
	d.MaterialSlots = make([]uint32, slotCount)
	for i := range d.MaterialSlots {
		d.MaterialSlots[i], _ = c.u32()
	}

	if !c.fits(drawCount, GPUDrawDataSize) {
		return nil, fmt.Errorf("%w: draw count %d", ErrCorrupt, drawCount)
	}
	d.Draws = make([]GPUDrawData, drawCount)
	for i := range d.Draws {
		b, _ := c.take(GPUDrawDataSize)
		d.Draws[i].Unmarshal(b)
	}

	if !c.fits(clusterCount, GPUClusterDataSize+GPUInstanceDataSize) {
		return nil, fmt.Errorf("%w: cluster count %d", ErrCorrupt, clusterCount)
	}
	d.Clusters = make([]GPUClusterData, clusterCount)
	for i := range d.Clusters {
		b, _ := c.take(GPUClusterDataSize)
		d.Clusters[i].Unmarshal(b)
	}
	d.Instances = make([]GPUInstanceData, clusterCount)
	for i := range d.Instances {
		b, _ := c.take(GPUInstanceDataSize)
		d.Instances[i].Unmarshal(b)
	}

	if c.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-c.off)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
