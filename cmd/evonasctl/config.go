package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	evoapi "evonas/pkg/evonas"
)

// loadSampleRequestFromConfig reads a sample request from a JSON or YAML
// file. Unknown keys are ignored so configs can carry driver-side settings
// alongside the engine bounds.
func loadSampleRequestFromConfig(path string) (evoapi.SampleRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evoapi.SampleRequest{}, err
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return evoapi.SampleRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return evoapi.SampleRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	var req evoapi.SampleRequest
	if v, ok := asString(raw["kind"]); ok {
		req.Kind = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asIntSlice(raw["input"]); ok {
		req.Input = v
	}
	if v, ok := asIntSlice(raw["output"]); ok {
		req.Output = v
	}
	if v, ok := asInt(raw["max_layers"]); ok {
		req.MaxLayers = v
	}
	if v, ok := asInt(raw["max_width"]); ok {
		req.MaxWidth = v
	}
	if v, ok := asInt(raw["max_stride"]); ok {
		req.MaxStride = v
	}
	if v, ok := asInt(raw["max_filter"]); ok {
		req.MaxFilter = v
	}
	if v, ok := asBool(raw["allow_dropout"]); ok {
		req.AllowDropout = v
	}
	if v, ok := asBool(raw["allow_batch_norm"]); ok {
		req.AllowBatchNorm = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	dims := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		dims = append(dims, n)
	}
	return dims, true
}
