package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile    string
	LogLevel   string
	ParserMode string

	// Lookup flags
	Language string
	Provider string
	Format   string

	// Anki flags
	DefIndex int
	Context  string
	Deck     string
	NoteType string

	// Export flags
	BatchFile string
	OutputDir string
	CSV       bool
	SkipAudio bool

	// Surface flags
	Listen string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:   "warn",
		ParserMode: "auto",
		Format:     "text",
		Listen:     "127.0.0.1:8790",
	}
}
