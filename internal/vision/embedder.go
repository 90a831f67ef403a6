package vision

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultInputName  = "input"
	defaultOutputName = "embeddings"
)

var ortInitOnce sync.Once

// initRuntime initializes the onnxruntime environment once per process.
func initRuntime(libPath string) error {
	var initErr error
	ortInitOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return fmt.Errorf("%w: initializing onnxruntime: %v", ErrModelLoad, initErr)
	}
	return nil
}

// EmbedderOptions configure the FaceNet ONNX session.
type EmbedderOptions struct {
	InputSize    int    // model input size in pixels (default 160)
	EmbeddingDim int    // output vector length (default 128)
	InputName    string // ONNX graph input name (default "input")
	OutputName   string // ONNX graph output name (default "embeddings")
	OrtLibPath   string // optional onnxruntime shared library path
}

func (o *EmbedderOptions) applyDefaults() {
	if o.InputSize == 0 {
		o.InputSize = 160
	}
	if o.EmbeddingDim == 0 {
		o.EmbeddingDim = 128
	}
	if o.InputName == "" {
		o.InputName = defaultInputName
	}
	if o.OutputName == "" {
		o.OutputName = defaultOutputName
	}
}

// Embedder runs a pretrained FaceNet network loaded once at startup.
// The session reuses a single pair of input/output tensors, so inference is
// serialized behind a mutex. The onnxruntime C API does not document the
// session as safe for concurrent Run calls with shared tensors.
type Embedder struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputSize    int
	embeddingDim int
}

// NewEmbedder loads the FaceNet ONNX model. A missing or corrupt model is a
// fatal configuration error reported once, not retried per frame.
func NewEmbedder(modelPath string, opts EmbedderOptions) (*Embedder, error) {
	opts.applyDefaults()

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", ErrModelLoad, modelPath, err)
	}
	if err := initRuntime(opts.OrtLibPath); err != nil {
		return nil, err
	}

	// FaceNet expects NHWC input, one image per run.
	inputShape := ort.NewShape(1, int64(opts.InputSize), int64(opts.InputSize), 3)
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %v", ErrModelLoad, err)
	}

	outputShape := ort.NewShape(1, int64(opts.EmbeddingDim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("%w: creating output tensor: %v", ErrModelLoad, err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("%w: creating session for %q: %v", ErrModelLoad, modelPath, err)
	}

	return &Embedder{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputSize:    opts.InputSize,
		embeddingDim: opts.EmbeddingDim,
	}, nil
}

// InputSize returns the square input size the model expects.
func (e *Embedder) InputSize() int {
	return e.inputSize
}

// EmbeddingDim returns the length of the produced embedding vectors.
func (e *Embedder) EmbeddingDim() int {
	return e.embeddingDim
}

// Embed runs a single forward pass and returns an L2-normalized embedding.
// A failure here affects only the given face; callers skip it and continue
// with the rest of the batch.
func (e *Embedder) Embed(face *FaceTensor) ([]float32, error) {
	if face == nil {
		return nil, fmt.Errorf("%w: nil face tensor", ErrEmbedding)
	}
	if face.Size != e.inputSize || len(face.Data) != e.inputSize*e.inputSize*3 {
		return nil, fmt.Errorf("%w: expected %dx%d input, got %dx%d",
			ErrEmbedding, e.inputSize, e.inputSize, face.Size, face.Size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputTensor.GetData(), face.Data)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	embedding := make([]float32, e.embeddingDim)
	copy(embedding, e.outputTensor.GetData())

	return L2Normalize(embedding), nil
}

// Close releases the ONNX session and its tensors.
func (e *Embedder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
		e.outputTensor = nil
	}
}
