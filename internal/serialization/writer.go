package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// tensor is a named float64 tensor ready to be written.
type tensor struct {
	name  string
	shape []int
	data  []float64
}

// flatten lays params out as tensors in layer order, weights before bias.
func flatten(params nn.NetParams) []tensor {
	ts := make([]tensor, 0, 2*len(params))
	for l, p := range params {
		in, out := p.Dims()
		w := make([]float64, 0, in*out)
		for i := 0; i < in; i++ {
			w = append(w, mat.Row(nil, i, p.W)...)
		}
		ts = append(ts, tensor{name: WeightName(l), shape: []int{in, out}, data: w})
		if p.B != nil {
			ts = append(ts, tensor{name: BiasName(l), shape: []int{out}, data: mat.Col(nil, 0, p.B)})
		}
	}
	return ts
}

// encode returns the little-endian bytes of every tensor, back to back.
func encode(ts []tensor) []byte {
	var n int
	for _, t := range ts {
		n += len(t.data)
	}
	buf := make([]byte, 0, n*float64Size)
	for _, t := range ts {
		for _, v := range t.data {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}

// Write writes params and header to w in .born v2 format.
//
// The writer fills FormatVersion and Tensors, and CreatedAt when it is
// zero. Everything else in header is written as given.
func Write(w io.Writer, params nn.NetParams, header Header) error {
	if len(params) == 0 {
		return errors.New("no layers to write")
	}
	ts := flatten(params)

	header.FormatVersion = FormatVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}
	header.Tensors = make([]TensorMeta, 0, len(ts))
	var offset int64
	for _, t := range ts {
		size := int64(len(t.data)) * float64Size
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   t.name,
			DType:  DTypeFloat64,
			Shape:  t.shape,
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	data := encode(ts)
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.Checkpoint != nil {
		flags |= FlagHasCheckpoint
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)

	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	var buf bytes.Buffer
	buf.Write(fixed)
	buf.Write(headerJSON)
	buf.Write(make([]byte, padding(int64(FixedHeaderSize+len(headerJSON)))))
	buf.Write(data)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write checkpoint")
	}
	return nil
}

// Save writes params and header to the file at path.
func Save(path string, params nn.NetParams, header Header) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return Write(file, params, header)
}
