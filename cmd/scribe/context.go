package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services/whisperx"
	"scribe/internal/services/ytdlp"
	"scribe/internal/transcriptcache"
	"scribe/internal/transcription"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// logger builds the process logger. Commands that print results to stdout
// rely on it writing to stderr.
func (c *commandContext) logger() (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(c.configValue())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func (c *commandContext) openCache() (*transcriptcache.Store, error) {
	store, err := transcriptcache.Open(c.configValue().Paths.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open transcript cache: %w", err)
	}
	return store, nil
}

// buildService wires the recognizer, downloader, and cache into an orchestrator.
func buildService(cfg *config.Config, cache *transcriptcache.Store, logger *slog.Logger) *transcription.Service {
	recognizer := whisperx.NewService(whisperx.Config{
		Model:       cfg.WhisperX.Model,
		CUDAEnabled: cfg.WhisperX.CUDAEnabled,
		VADMethod:   cfg.WhisperX.VADMethod,
		HFToken:     cfg.WhisperX.HFToken,
		Language:    cfg.WhisperX.Language,
		UVXBinary:   cfg.WhisperX.UVXBinary,
	})
	downloader := ytdlp.New(ytdlp.Config{
		Binary:  cfg.Downloader.Binary,
		Format:  cfg.Downloader.Format,
		Timeout: cfg.DownloaderTimeout(),
	})
	return transcription.NewService(transcription.Options{
		WorkDir:       cfg.Paths.WorkDir,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
		Timeout:       cfg.TranscriptionTimeout(),
	}, recognizer, downloader, cache, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
