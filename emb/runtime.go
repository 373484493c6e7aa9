// Package emb runs transformer checkpoints exported to ONNX.
//
// An Encoder turns text into the final-layer hidden state of the first
// token; a SequenceClassifier returns class logits mapped through the
// checkpoint's id2label table. Both share one ONNX Runtime environment per
// process.
package emb

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeMu   sync.Mutex
	runtimeRefs int
)

// acquireRuntime initialises the shared ONNX Runtime environment on first use.
func acquireRuntime(library string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 && !ort.IsInitialized() {
		if lib := strings.TrimSpace(library); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	runtimeRefs++
	return nil
}

// releaseRuntime tears the environment down once the last session is closed.
func releaseRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		return
	}
	runtimeRefs--
	if runtimeRefs == 0 && ort.IsInitialized() {
		_ = ort.DestroyEnvironment()
	}
}

// sessionIO describes which of the standard transformer inputs a model takes.
type sessionIO struct {
	inputs     []string
	output     string
	outputDims []int64
}

var knownInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

func inspectModel(modelPath, wantOutput string) (sessionIO, error) {
	ins, outs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return sessionIO{}, fmt.Errorf("inspect %s: %w", modelPath, err)
	}
	var io sessionIO
	present := make(map[string]bool, len(ins))
	for _, in := range ins {
		present[in.Name] = true
	}
	for _, name := range knownInputs {
		if present[name] {
			io.inputs = append(io.inputs, name)
		}
	}
	if !present["input_ids"] {
		return sessionIO{}, errors.New("model has no input_ids input")
	}
	if len(outs) == 0 {
		return sessionIO{}, errors.New("model declares no outputs")
	}
	io.output = outs[0].Name
	io.outputDims = outs[0].Dimensions
	for _, out := range outs {
		if wantOutput != "" && out.Name == wantOutput {
			io.output = out.Name
			io.outputDims = out.Dimensions
			break
		}
	}
	return io, nil
}

func buildInputs(names []string, enc encodedText) ([]ort.Value, func(), error) {
	shape := ort.NewShape(1, int64(len(enc.ids)))
	values := make([]ort.Value, 0, len(names))
	cleanup := func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}
	for _, name := range names {
		var data []int64
		switch name {
		case "input_ids":
			data = enc.ids
		case "attention_mask":
			data = enc.mask
		case "token_type_ids":
			data = enc.typeIDs
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		values = append(values, t)
	}
	return values, cleanup, nil
}
