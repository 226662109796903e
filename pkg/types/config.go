package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "autolatex/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LocalConfig holds settings for local pdflatex compilation.
type LocalConfig struct {
	// WorkDir is the shared working directory where inputs are staged
	// and artifacts are produced. Created once at process start.
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// OutputDir, when set, is where produced PDFs are moved after a
	// successful compile. A failed move keeps the artifact in WorkDir.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// PdflatexPath is an explicit path to the pdflatex executable.
	// Empty means look it up on $PATH.
	PdflatexPath string `json:"pdflatex_path,omitempty" yaml:"pdflatex_path,omitempty"`

	// CompileTimeout bounds a single pdflatex run (default 60s).
	CompileTimeout time.Duration `json:"compile_timeout" yaml:"compile_timeout"`
}

// RemoteConfig holds settings for remote compilation services.
type RemoteConfig struct {
	HTTPConfig `yaml:",inline"`

	// WorkDir is where downloaded PDFs are written.
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// ContentEndpoint receives multipart document uploads and returns a
	// compiled PDF (content-mode).
	ContentEndpoint string `json:"content_endpoint" yaml:"content_endpoint"`

	// ReferenceEndpoint compiles a file straight out of a git repository
	// (reference-mode, latexonline.cc-style).
	ReferenceEndpoint string `json:"reference_endpoint" yaml:"reference_endpoint"`

	// Compiler is the compiler-selection value sent to the services
	// (default "pdflatex").
	Compiler string `json:"compiler" yaml:"compiler"`

	// Branches is the branch-resolution order for raw-file fetches
	// (default ["main", "master"]).
	Branches []string `json:"branches" yaml:"branches"`
}

// BatchConfig holds settings for batch remote compilation.
type BatchConfig struct {
	Remote RemoteConfig `yaml:",inline"`

	// MaxConcurrency bounds simultaneous outbound compile calls
	// (default 4).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
}

// PushConfig holds settings for pushing artifacts back to a repository.
type PushConfig struct {
	// Folder is the repository path the artifacts are written under.
	Folder string `json:"folder" yaml:"folder"`

	// Branch is the target branch. Empty means the repository default.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`

	// Token is the API credential. Usually loaded from .secrets/github-token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}
