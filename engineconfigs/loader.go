package engineconfigs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/hazzik/Rhino.Net-sub003/configs"
	"github.com/hazzik/Rhino.Net-sub003/logs"
)

//go:embed schema.cue
var schema string

// configPaths lists the existing files named one of filenames, most local
// first.
func configPaths(filenames ...string) (paths []string) {

	// working directory
	workingDir, err := os.Getwd()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(workingDir, filename)
			_, err := os.Stat(path)
			if err == nil {
				paths = append(paths, path)
			}
		}
	}

	// user config dir
	configDir, err := os.UserConfigDir()
	if err == nil {
		for _, filename := range filenames {
			path := filepath.Join(configDir, filename)
			_, err := os.Stat(path)
			if err == nil {
				paths = append(paths, path)
			}
		}
	}

	// system wide dir
	for _, filename := range filenames {
		path := filepath.Join("/etc", filename)
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}

	return
}

func (Module) ConfigsLoader(
	logger logs.Logger,
) configs.Loader {
	paths := configPaths("jsvm.cue", ".jsvm.cue")
	if len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}
	return configs.NewLoader(paths, schema)
}
