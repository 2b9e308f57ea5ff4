package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/netopt/internal/nn"
)

// SafeTensorHeader describes a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes params to w in SafeTensors format.
//
// Format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: F64 little-endian]
//
// Tensors use the same names as the .born format and are written in
// alphabetical order by name.
func WriteSafeTensors(w io.Writer, params nn.NetParams, metadata map[string]string) error {
	ts := flatten(params)
	sort.Slice(ts, func(i, j int) bool { return ts[i].name < ts[j].name })

	header := make(map[string]any, len(ts)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var offset int64
	for _, t := range ts {
		shape := make([]int64, len(t.shape))
		for i, d := range t.shape {
			shape[i] = int64(d)
		}
		size := int64(len(t.data)) * float64Size
		header[t.name] = SafeTensorHeader{
			DType:       "F64",
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return errors.Wrap(err, "failed to write header size")
	}
	if _, err := w.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if _, err := w.Write(encode(ts)); err != nil {
		return errors.Wrap(err, "failed to write tensor data")
	}
	return nil
}

// SaveSafeTensors writes params to the file at path in SafeTensors format.
func SaveSafeTensors(path string, params nn.NetParams, metadata map[string]string) (err error) {
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
	return WriteSafeTensors(file, params, metadata)
}
