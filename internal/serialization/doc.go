// Package serialization saves and loads trained network parameters in the
// .born v2 checkpoint format.
//
//	File structure:
//	  [64 bytes: fixed header]
//	    0x00 magic "BORN"
//	    0x04 version (uint32 LE, 2)
//	    0x08 flags (uint32 LE)
//	    0x10 header size (uint64 LE)
//	    0x18 data size (uint64 LE)
//	    0x20 SHA-256 of the data section (32 bytes)
//	  [header size bytes: JSON header]
//	  [padding to a 64-byte boundary]
//	  [data: float64 little-endian tensors]
//
// Layer l of a NetParams stack is stored as "layer.<l>.weight" with shape
// [fan-in, fan-out] in row-major order and, when present, "layer.<l>.bias"
// with shape [fan-out]. The JSON header also carries the training result
// (optimizer, loss, epochs, learning rate, run id) and hyper-parameters.
//
// Example usage:
//
//	// Save
//	err := serialization.Save("net.born", params, serialization.Header{
//	    ModelType:  "NeuralNet_3L",
//	    Checkpoint: serialization.NewCheckpointMeta(opt.Name(), res, opt.Config()),
//	})
//
//	// Load
//	params, header, err := serialization.Load("net.born")
//
// SaveSafeTensors exports the same tensors for tools that read SafeTensors.
package serialization
