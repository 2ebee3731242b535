package config

const (
	defaultStorageDir            = "~/.local/share/tunescribe/storage"
	defaultLogDir                = "~/.local/share/tunescribe/logs"
	defaultMaxFileMB             = 100
	defaultMaxDurationSec        = 300
	defaultSampleRate            = 22050
	defaultSeparationBinary      = "demucs"
	defaultSeparationModel       = "htdemucs"
	defaultSeparationTimeout     = 600
	defaultRenderer              = "mscore"
	defaultMscoreBinary          = "mscore"
	defaultVerovioBinary         = "verovio"
	defaultRenderTimeout         = 60
	defaultPitchBackend          = "nsdf"
	defaultPitchFallback         = "acf"
	defaultWorkers               = 2
	defaultQueuePollInterval     = 5
	defaultErrorRetryInterval    = 10
	defaultLogFormat             = "auto"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
		},
		Limits: Limits{
			MaxFileMB:      defaultMaxFileMB,
			MaxDurationSec: defaultMaxDurationSec,
			SampleRate:     defaultSampleRate,
		},
		Separation: Separation{
			Binary:         defaultSeparationBinary,
			Model:          defaultSeparationModel,
			TimeoutSeconds: defaultSeparationTimeout,
		},
		Render: Render{
			Renderer:       defaultRenderer,
			MscoreBinary:   defaultMscoreBinary,
			VerovioBinary:  defaultVerovioBinary,
			TimeoutSeconds: defaultRenderTimeout,
		},
		Pitch: Pitch{
			Backend:         defaultPitchBackend,
			FallbackBackend: defaultPitchFallback,
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
