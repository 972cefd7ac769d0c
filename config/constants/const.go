package constants

import (
	"os"
	"path/filepath"
)

const DefaultHomeEnv string = "TOKENRELAY_HOME"
const ConfigEnv string = "TOKENRELAY_CONFIG"

// ConfigName is the config file looked up in the search paths, without extension.
const ConfigName = "tokenrelay"

var DefaultHome string

func init() {
	if home := os.Getenv(DefaultHomeEnv); home != "" {
		DefaultHome = home
		return
	}
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		DefaultHome = "/data"
	} else {
		DefaultHome = filepath.Join(userHomeDir, ".tokenrelay")
	}
}
