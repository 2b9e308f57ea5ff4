package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/netopt/internal/nn"
)

// ReaderOptions configures how a checkpoint is read.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// checkpoint is a parsed but not yet decoded .born file.
type checkpoint struct {
	header Header
	data   []byte
}

// parse splits raw file bytes into the header and the data section.
func parse(raw []byte, opts ReaderOptions) (*checkpoint, error) {
	if len(raw) < FixedHeaderSize {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes, fixed header needs %d", len(raw), FixedHeaderSize)
	}
	if string(raw[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", v, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	headerEnd := int64(FixedHeaderSize) + int64(headerSize)
	dataOffset := headerEnd + padding(headerEnd)
	if int64(len(raw)) < headerEnd {
		return nil, errors.Wrap(ErrTruncated, "header")
	}
	if avail := int64(len(raw)) - dataOffset; avail < 0 || uint64(avail) < dataSize {
		return nil, errors.Wrap(ErrTruncated, "data section")
	}

	var h Header
	if err := json.Unmarshal(raw[FixedHeaderSize:headerEnd], &h); err != nil {
		return nil, errors.Wrap(err, "failed to parse header JSON")
	}

	//nolint:gosec // G115: dataSize fits, it was checked against len(raw)
	data := raw[dataOffset : dataOffset+int64(dataSize)]
	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
			return nil, err
		}
	}
	if err := ValidateHeader(&h, int64(len(data)), opts.ValidationLevel); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &checkpoint{header: h, data: data}, nil
}

// values decodes the float64 elements of a tensor of the given rank. The
// tensor is checked here as well as in ValidateHeader so that decoding is
// safe at every validation level.
func (c *checkpoint) values(t *TensorMeta, rank int) ([]float64, error) {
	if err := checkTensor(t, rank); err != nil {
		return nil, err
	}
	if t.Offset < 0 || t.Offset > int64(len(c.data))-t.Size {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  t.Name,
			Details: fmt.Sprintf("offset %d size %d, data section has %d bytes", t.Offset, t.Size, len(c.data)),
		}
	}
	b := c.data[t.Offset : t.Offset+t.Size]
	out := make([]float64, len(b)/float64Size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*float64Size:]))
	}
	return out, nil
}

// params rebuilds the layer stack from the tensors named layer.<l>.*.
func (c *checkpoint) params() (nn.NetParams, error) {
	byName := make(map[string]*TensorMeta, len(c.header.Tensors))
	for i := range c.header.Tensors {
		byName[c.header.Tensors[i].Name] = &c.header.Tensors[i]
	}

	var ps nn.NetParams
	for l := 0; l < MaxLayers; l++ {
		wt, ok := byName[WeightName(l)]
		if !ok {
			break
		}
		w, err := c.values(wt, 2)
		if err != nil {
			return nil, err
		}
		p := &nn.NetParam{W: mat.NewDense(wt.Shape[0], wt.Shape[1], w)}

		if bt, ok := byName[BiasName(l)]; ok {
			b, err := c.values(bt, 1)
			if err != nil {
				return nil, err
			}
			if len(b) != wt.Shape[1] {
				return nil, &ValidationError{
					Type:    "invalid_shape",
					Tensor:  bt.Name,
					Tensor2: wt.Name,
					Details: fmt.Sprintf("bias length %d, weight columns %d", len(b), wt.Shape[1]),
				}
			}
			p.B = mat.NewVecDense(len(b), b)
		}
		ps = append(ps, p)
	}
	if len(ps) == 0 {
		return nil, errors.Wrap(ErrMissingTensor, WeightName(0))
	}
	return ps, nil
}

// Read reads a checkpoint from r with strict validation.
func Read(r io.Reader) (nn.NetParams, Header, error) {
	return ReadWithOptions(r, ReaderOptions{ValidationLevel: ValidationStrict})
}

// ReadWithOptions reads a checkpoint from r.
func ReadWithOptions(r io.Reader, opts ReaderOptions) (nn.NetParams, Header, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to read checkpoint")
	}
	c, err := parse(raw, opts)
	if err != nil {
		return nil, Header{}, err
	}
	ps, err := c.params()
	if err != nil {
		return nil, Header{}, err
	}
	return ps, c.header, nil
}

// Load reads the checkpoint at path with strict validation.
func Load(path string) (nn.NetParams, Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, errors.Wrap(err, "failed to open file")
	}
	defer func() {
		_ = file.Close() // Read-only, nothing to flush
	}()
	return Read(file)
}

// LoadInto reads the checkpoint at path and copies its values into params,
// which must have the same layer shapes.
func LoadInto(path string, params nn.NetParams) (Header, error) {
	loaded, h, err := Load(path)
	if err != nil {
		return Header{}, err
	}
	if len(loaded) != len(params) {
		return Header{}, &ValidationError{
			Type:    "layer_count",
			Details: fmt.Sprintf("file has %d layers, model has %d", len(loaded), len(params)),
		}
	}
	for l, p := range params {
		in, out := p.Dims()
		lin, lout := loaded[l].Dims()
		if in != lin || out != lout || p.HasBias() != loaded[l].HasBias() {
			return Header{}, &ValidationError{
				Type:    "shape_mismatch",
				Tensor:  WeightName(l),
				Details: fmt.Sprintf("file %dx%d (bias %t), model %dx%d (bias %t)", lin, lout, loaded[l].HasBias(), in, out, p.HasBias()),
			}
		}
	}
	params.Set(loaded)
	return h, nil
}
