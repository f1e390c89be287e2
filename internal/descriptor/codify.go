package descriptor

import (
	"fmt"
	"strconv"
	"strings"
)

// The codec owns the catalog lookup tables: codification ordinals are
// positions within the catalogs, never raw enum values, so InitUnset and any
// future non-catalog members can exist without shifting codes.

// padSentinel fills the unused tail of a fixed-length code.
const padSentinel = -1

func activationOrdinal(a Activation) int {
	for i, cand := range Activations {
		if cand == a {
			return i
		}
	}
	return padSentinel
}

func weightInitOrdinal(w WeightInit) int {
	for i, cand := range WeightInits {
		if cand == w {
			return i
		}
	}
	return padSentinel
}

// CodifyMLP encodes a dense genome as a fixed-length integer vector suitable
// for position-wise crossover between genomes of different depth: the hidden
// layer count, then the widths, the initializer ordinals, and the activation
// ordinals, each section padded with the sentinel to maxLayers+1 slots. The
// result always has length 1 + 3*(maxLayers+1).
func CodifyMLP(d *MLPDescriptor, maxLayers int) []int {
	slots := maxLayers + 1
	code := make([]int, 0, 1+3*slots)
	code = append(code, len(d.Layers))

	section := func(values []int) {
		code = append(code, values...)
		for i := len(values); i < slots; i++ {
			code = append(code, padSentinel)
		}
	}

	widths := make([]int, len(d.Layers))
	inits := make([]int, 0, len(d.Layers)+1)
	acts := make([]int, 0, len(d.Layers)+1)
	for i, layer := range d.Layers {
		widths[i] = layer.Width
		inits = append(inits, weightInitOrdinal(layer.Init))
		acts = append(acts, activationOrdinal(layer.Act))
	}
	inits = append(inits, weightInitOrdinal(d.Output.Init))
	acts = append(acts, activationOrdinal(d.Output.Act))

	section(widths)
	section(inits)
	section(acts)
	return code
}

// Codify renders a genome's identity string: a delimiter-joined signature of
// the input/output shapes and the full layer sequence. It is a readable
// deduplication key, not a crossover code. MLP genomes also render one so
// every family can be archived under a string key.
func Codify(d Descriptor) string {
	switch desc := d.(type) {
	case *MLPDescriptor:
		return codifyMLPString(desc)
	case *ConvDescriptor:
		return codifyConvString(desc)
	case *TConvDescriptor:
		return codifyTConvString(desc)
	default:
		return fmt.Sprintf("unknown/%s", d.Kind())
	}
}

func codifyMLPString(d *MLPDescriptor) string {
	widths := make([]string, len(d.Layers))
	inits := make([]string, 0, len(d.Layers)+1)
	acts := make([]string, 0, len(d.Layers)+1)
	for i, layer := range d.Layers {
		widths[i] = strconv.Itoa(layer.Width)
		inits = append(inits, layer.Init.String())
		acts = append(acts, layer.Act.String())
	}
	inits = append(inits, d.Output.Init.String())
	acts = append(acts, d.Output.Act.String())

	return strings.Join([]string{
		"mlp",
		strconv.Itoa(d.InputUnits),
		strconv.Itoa(d.OutputUnits),
		strings.Join(widths, ","),
		strings.Join(inits, ","),
		strings.Join(acts, ","),
	}, "_")
}

func codifyConvString(d *ConvDescriptor) string {
	layers := make([]string, len(d.Layers))
	inits := make([]string, len(d.Layers))
	acts := make([]string, len(d.Layers))
	for i, layer := range d.Layers {
		entry := fmt.Sprintf("%s:%s/%s", layer.Kind, layer.Filter, layer.Stride)
		if layer.PoolFilter != nil && layer.PoolStride != nil {
			entry += fmt.Sprintf("+pool:%s/%s", *layer.PoolFilter, *layer.PoolStride)
		}
		layers[i] = entry
		inits[i] = layer.Init.String()
		acts[i] = layer.Act.String()
	}
	return strings.Join([]string{
		"conv",
		d.Input.String(),
		d.Output.String(),
		strings.Join(layers, ","),
		strings.Join(inits, ","),
		strings.Join(acts, ","),
	}, "_")
}

func codifyTConvString(d *TConvDescriptor) string {
	layers := make([]string, len(d.Layers))
	inits := make([]string, len(d.Layers))
	acts := make([]string, len(d.Layers))
	for i, layer := range d.Layers {
		layers[i] = fmt.Sprintf("tconv:%s/%s", layer.Filter, layer.Stride)
		inits[i] = layer.Init.String()
		acts[i] = layer.Act.String()
	}
	return strings.Join([]string{
		"tconv",
		d.Input.String(),
		d.Output.String(),
		strings.Join(layers, ","),
		strings.Join(inits, ","),
		strings.Join(acts, ","),
	}, "_")
}
