package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/services"
	"scribe/internal/transcript"
)

// CommandRunner executes an external command. Tests substitute it to avoid
// launching WhisperX.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Binary returns the launcher the service invokes.
func (s *Service) Binary() string {
	if strings.TrimSpace(s.cfg.UVXBinary) != "" {
		return s.cfg.UVXBinary
	}
	return UVXCommand
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Result is a finished recognition in the shapes callers need.
type Result struct {
	// FullText is every segment's text joined by a single space.
	FullText string
	// Timestamps holds one "[start --> end]" label per segment.
	Timestamps []string
	// Combined is the annotated form: one "[start --> end]  text" block per line.
	Combined string
	// Segments are the parsed spans in recognizer order.
	Segments []transcript.Segment
}

// Transcribe runs WhisperX over the media file at path. WhisperX writes into a
// scratch directory next to the source that is removed before returning.
// Errors are already classified with services.ErrNoAudioTrack or
// services.ErrRecognitionFailed.
func (s *Service) Transcribe(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "whisperx", "transcribe", "source path required", nil)
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(path), "whisperx-*")
	if err != nil {
		return Result{}, services.Wrap(services.ErrRecognitionFailed, "whisperx", "transcribe", "create output dir", err)
	}
	defer os.RemoveAll(outputDir)

	args := s.buildArgs(path, outputDir)
	if err := s.run(ctx, s.Binary(), args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ClassifyFailure(ctxErr)
		}
		return Result{}, ClassifyFailure(err)
	}

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return Result{}, services.Wrap(services.ErrRecognitionFailed, "whisperx", "load output", "", err)
	}
	return BuildResult(segments), nil
}

// BuildResult converts raw WhisperX segments into a Result.
func BuildResult(raw []Segment) Result {
	segments := make([]transcript.Segment, 0, len(raw))
	stamps := make([]string, 0, len(raw))
	for _, seg := range raw {
		start, end := seg.Start, seg.End
		if end < start {
			end = start
		}
		stamps = append(stamps, transcript.FormatRange(start, end))
		segments = append(segments, transcript.Segment{
			Start: secondsToDuration(start),
			End:   secondsToDuration(end),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	var combined strings.Builder
	for i, seg := range segments {
		if i > 0 {
			combined.WriteByte('\n')
		}
		combined.WriteString(stamps[i])
		combined.WriteString("  ")
		combined.WriteString(seg.Text)
	}
	return Result{
		FullText:   transcript.PlainText(segments),
		Timestamps: stamps,
		Combined:   combined.String(),
		Segments:   segments,
	}
}

// secondsToDuration truncates to whole milliseconds so parsed and formatted
// offsets agree.
func secondsToDuration(seconds float64) time.Duration {
	parsed, err := transcript.ParseTimestamp(transcript.FormatTimestamp(seconds))
	if err != nil {
		return 0
	}
	return parsed
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := LanguageCode(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}
