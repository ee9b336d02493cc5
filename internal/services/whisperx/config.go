package whisperx

// Config captures runtime settings for WhisperX invocations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "base.en", "large-v3").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// Language forces the spoken language. Empty lets WhisperX detect it.
	Language string
	// UVXBinary overrides the uvx launcher path.
	UVXBinary string
}

// WhisperX configuration constants.
const (
	DefaultModel      = "base.en"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	VADOnset          = "0.08"
	VADOffset         = "0.07"
	BeamSize          = "5"
	Temperature       = "0.0"
	SegmentResolution = "sentence"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
)

// UVXCommand is the default launcher used to run WhisperX.
const UVXCommand = "uvx"
