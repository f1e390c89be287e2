package descriptor

import (
	"fmt"
	"math/rand"
)

// Activation identifies the nonlinearity applied after a layer. ActNone is a
// legitimate catalog member: a layer may apply no activation at all.
type Activation int

const (
	ActNone Activation = iota
	ActReLU
	ActELU
	ActSoftplus
	ActSoftsign
	ActSigmoid
	ActTanh
)

// Activations is the catalog sampled by the random initializers and mutation
// operators. Catalog order is also the codification ordinal.
var Activations = []Activation{
	ActNone,
	ActReLU,
	ActELU,
	ActSoftplus,
	ActSoftsign,
	ActSigmoid,
	ActTanh,
}

func (a Activation) String() string {
	switch a {
	case ActNone:
		return "none"
	case ActReLU:
		return "relu"
	case ActELU:
		return "elu"
	case ActSoftplus:
		return "softplus"
	case ActSoftsign:
		return "softsign"
	case ActSigmoid:
		return "sigmoid"
	case ActTanh:
		return "tanh"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

func ParseActivation(name string) (Activation, error) {
	for _, a := range Activations {
		if a.String() == name {
			return a, nil
		}
	}
	return ActNone, fmt.Errorf("unknown activation: %s", name)
}

// WeightInit identifies the weight initialization scheme of a layer.
// InitUnset is the zero value used by layers that carry no weights
// (standalone pooling entries); it is not part of the catalog.
type WeightInit int

const (
	InitUnset WeightInit = iota
	InitRandomNormal
	InitRandomUniform
	InitGlorotNormal
	InitGlorotUniform
)

var WeightInits = []WeightInit{
	InitRandomNormal,
	InitRandomUniform,
	InitGlorotNormal,
	InitGlorotUniform,
}

// ConvWeightInits is the restricted catalog used by the convolutional
// families: plain random-normal kernels destabilize early training there, so
// the initializers never draw it.
var ConvWeightInits = WeightInits[1:]

func (w WeightInit) String() string {
	switch w {
	case InitUnset:
		return "unset"
	case InitRandomNormal:
		return "random_normal"
	case InitRandomUniform:
		return "random_uniform"
	case InitGlorotNormal:
		return "glorot_normal"
	case InitGlorotUniform:
		return "glorot_uniform"
	default:
		return fmt.Sprintf("weight_init(%d)", int(w))
	}
}

func ParseWeightInit(name string) (WeightInit, error) {
	for _, w := range WeightInits {
		if w.String() == name {
			return w, nil
		}
	}
	return InitUnset, fmt.Errorf("unknown weight init: %s", name)
}

func RandomActivation(rng *rand.Rand) Activation {
	return Activations[rng.Intn(len(Activations))]
}

func RandomWeightInit(rng *rand.Rand) WeightInit {
	return WeightInits[rng.Intn(len(WeightInits))]
}

func RandomConvWeightInit(rng *rand.Rand) WeightInit {
	return ConvWeightInits[rng.Intn(len(ConvWeightInits))]
}
