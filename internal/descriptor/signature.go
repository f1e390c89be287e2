package descriptor

import (
	"crypto/sha1"
	"encoding/hex"
)

// TopologySummary aggregates the structural facts a driver compares when
// deciding whether two genomes are worth distinguishing.
type TopologySummary struct {
	Kind                   Kind           `json:"kind"`
	HiddenLayers           int            `json:"hidden_layers"`
	TotalParams            int64          `json:"total_params"`
	ActivationDistribution map[string]int `json:"activation_distribution"`
	InitDistribution       map[string]int `json:"init_distribution"`
	Dropout                bool           `json:"dropout"`
	BatchNorm              bool           `json:"batch_norm"`
}

// Signature pairs a short stable fingerprint with the summary it was derived
// from. The fingerprint hashes the full Codify string, so two genomes share
// a fingerprint exactly when their codified identity matches.
type Signature struct {
	Fingerprint string          `json:"fingerprint"`
	Summary     TopologySummary `json:"summary"`
}

func ComputeSignature(d Descriptor) Signature {
	actDist := make(map[string]int)
	initDist := make(map[string]int)
	var dropout, batchNorm bool

	switch desc := d.(type) {
	case *MLPDescriptor:
		for _, layer := range desc.Layers {
			actDist[layer.Act.String()]++
			initDist[layer.Init.String()]++
		}
		actDist[desc.Output.Act.String()]++
		initDist[desc.Output.Init.String()]++
		dropout, batchNorm = desc.Dropout, desc.BatchNorm
	case *ConvDescriptor:
		for _, layer := range desc.Layers {
			actDist[layer.Act.String()]++
			initDist[layer.Init.String()]++
		}
		dropout, batchNorm = desc.Dropout, desc.BatchNorm
	case *TConvDescriptor:
		for _, layer := range desc.Layers {
			actDist[layer.Act.String()]++
			initDist[layer.Init.String()]++
		}
		dropout, batchNorm = desc.Dropout, desc.BatchNorm
	}

	digest := sha1.Sum([]byte(Codify(d)))
	return Signature{
		Fingerprint: hex.EncodeToString(digest[:8]),
		Summary: TopologySummary{
			Kind:                   d.Kind(),
			HiddenLayers:           d.HiddenLayerCount(),
			TotalParams:            ParamCount(d),
			ActivationDistribution: actDist,
			InitDistribution:       initDist,
			Dropout:                dropout,
			BatchNorm:              batchNorm,
		},
	}
}

// ParamCount estimates the number of trainable weights the genome would
// instantiate: dense layers contribute (fanIn+1)*width, convolutional
// kernels kH*kW*inC*outC + outC, and pure pooling layers nothing. Channel
// counts between layers follow the cached shapes.
func ParamCount(d Descriptor) int64 {
	var total int64
	switch desc := d.(type) {
	case *MLPDescriptor:
		fanIn := desc.InputUnits
		for _, layer := range desc.Layers {
			total += int64(fanIn+1) * int64(layer.Width)
			fanIn = layer.Width
		}
		total += int64(fanIn+1) * int64(desc.OutputUnits)
	case *ConvDescriptor:
		inC := desc.Input.C
		for i, layer := range desc.Layers {
			if layer.Kind == LayerConv {
				f := layer.Filter
				total += int64(f.H*f.W*inC*f.Channels) + int64(f.Channels)
			}
			if i < len(desc.Shapes) {
				inC = desc.Shapes[i].C
			}
		}
	case *TConvDescriptor:
		inC := desc.Input.C
		for i, layer := range desc.Layers {
			f := layer.Filter
			total += int64(f.H*f.W*inC*f.Channels) + int64(f.Channels)
			if i < len(desc.OutputShapes) {
				inC = desc.OutputShapes[i].C
			}
		}
	}
	return total
}
