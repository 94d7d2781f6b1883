package util

import (
	"os"
	"path/filepath"
	"strings"
)

const TempSuffix = "_tmp"

type infoLogger interface {
	Infof(string, ...any)
	Warnf(string, ...any)
}

// CleanupUnfinishedTempFolders removes chapter work folders left behind by
// an interrupted download.
func CleanupUnfinishedTempFolders(outputDir string, log infoLogger) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), TempSuffix) {
			continue
		}

		full := filepath.Join(outputDir, e.Name())
		if err := os.RemoveAll(full); err != nil {
			log.Warnf("cleanup %s: %v", full, err)
			continue
		}
		log.Infof("removed %s", full)
	}
}

func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}

func CleanupFolder(folder string) {
	_ = os.RemoveAll(folder)
}
