package config

const (
	defaultServerURL    = "https://prankweb.cz"
	defaultPDBSearchURL = "https://www.ebi.ac.uk/pdbe"
	defaultDataDir      = "~/.local/share/prankweb-sync"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			URL: defaultServerURL,
		},
		PDB: PDB{
			SearchURL: defaultPDBSearchURL,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
