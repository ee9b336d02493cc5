package config

const (
	defaultWorkDir                = "~/.local/share/scribe/work"
	defaultCachePath              = "~/.cache/scribe/transcripts.db"
	defaultLogDir                 = "~/.local/share/scribe/logs"
	defaultAPIBind                = "127.0.0.1:7490"
	defaultMaxUploadMB            = 512
	defaultWhisperXModel          = "base.en"
	defaultWhisperXVADMethod      = "silero"
	defaultUVXBinary              = "uvx"
	defaultDownloaderBinary       = "yt-dlp"
	defaultDownloaderFormat       = "bestaudio[ext=m4a]/bestaudio"
	defaultMaxConcurrent          = 1
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultDownloaderTimeoutSecs  = 900
	defaultTranscriptionTimeout   = 0
	defaultServerReadTimeoutSecs  = 300
	defaultServerWriteTimeoutSecs = 3600
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			CachePath: defaultCachePath,
			LogDir:    defaultLogDir,
		},
		Server: Server{
			Bind:                defaultAPIBind,
			MaxUploadMB:         defaultMaxUploadMB,
			ReadTimeoutSeconds:  defaultServerReadTimeoutSecs,
			WriteTimeoutSeconds: defaultServerWriteTimeoutSecs,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
			UVXBinary: defaultUVXBinary,
		},
		Downloader: Downloader{
			Binary:         defaultDownloaderBinary,
			Format:         defaultDownloaderFormat,
			TimeoutSeconds: defaultDownloaderTimeoutSecs,
		},
		Transcription: Transcription{
			MaxConcurrent:  defaultMaxConcurrent,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
