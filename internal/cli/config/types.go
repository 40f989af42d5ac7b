// Package config provides configuration management for the leapview CLI.
package config

// Default configuration values.
const (
	DefaultViewsDir   = "views"
	DefaultHelpersDir = "helpers"
	DefaultPort       = 8080
	DefaultOutputDir  = "public"
)

// Config holds all CLI configuration options.
type Config struct {
	ViewsDir   string         `koanf:"views_dir"`
	HelpersDir string         `koanf:"helpers_dir"`
	Autoescape bool           `koanf:"autoescape"`
	Verbose    bool           `koanf:"verbose"`
	Serve      ServeConfig    `koanf:"serve"`
	Markdown   MarkdownConfig `koanf:"markdown"`
	Build      BuildConfig    `koanf:"build"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// BuildConfig holds configuration for the build command.
type BuildConfig struct {
	OutputDir string `koanf:"output_dir"`
	Jobs      int    `koanf:"jobs"` // concurrent renders; 0 means one per CPU
}

// MarkdownConfig holds markdown rendering options.
type MarkdownConfig struct {
	Unsafe    bool `koanf:"unsafe"`     // pass raw HTML through
	HardWraps bool `koanf:"hard_wraps"` // render newlines as <br>
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		ViewsDir:   DefaultViewsDir,
		HelpersDir: DefaultHelpersDir,
		Autoescape: true,
		Serve:      ServeConfig{Port: DefaultPort, Watch: true},
		Markdown:   MarkdownConfig{Unsafe: true},
		Build:      BuildConfig{OutputDir: DefaultOutputDir},
	}
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"views_dir":           d.ViewsDir,
		"helpers_dir":         d.HelpersDir,
		"autoescape":          d.Autoescape,
		"verbose":             d.Verbose,
		"serve.port":          d.Serve.Port,
		"serve.watch":         d.Serve.Watch,
		"markdown.unsafe":     d.Markdown.Unsafe,
		"markdown.hard_wraps": d.Markdown.HardWraps,
		"build.output_dir":    d.Build.OutputDir,
		"build.jobs":          d.Build.Jobs,
	}
}
