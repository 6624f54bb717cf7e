package runtime

import (
	"go/build"
	"os"
	"path/filepath"
)

// ProjectDirectory is the develop project directory under GOPATH
var ProjectDirectory = "/src/github.com/DilanUni/security-video-detection"

// GetRuntimeDirectory returns the directory for file access whether running
// a release beside its config folders or during development, ending in a
// path separator. Returns empty when subDir exists in neither place.
// subDir is the dotted folder name, ex. ".config", ".logs".
func GetRuntimeDirectory(subDir string) (path string) {
	subDir = "/" + subDir + "/"
	executableDirectory, _ := filepath.Abs(filepath.Dir(os.Args[0]))
	path = filepath.Clean(executableDirectory+subDir) + string(filepath.Separator)
	if _, err := os.Stat(path); err == nil {
		return
	}
	developDirectory := build.Default.GOPATH + ProjectDirectory
	path = filepath.Clean(developDirectory+subDir) + string(filepath.Separator)
	if _, err := os.Stat(path); err == nil {
		return
	}
	path = ""
	return
}
