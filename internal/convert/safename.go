package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveCollision returns a path that does not collide with an existing
// file by appending _2, _3 and so on before the extension. The second
// return value reports whether a rename happened. taken carries paths
// already claimed during this run but not yet written (dry runs included);
// checkDisk additionally treats files already on disk as taken.
func resolveCollision(path string, taken map[string]struct{}, checkDisk bool) (string, bool) {
	if !pathTaken(path, taken, checkDisk) {
		claim(path, taken)
		return path, false
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if !pathTaken(candidate, taken, checkDisk) {
			claim(candidate, taken)
			return candidate, true
		}
	}
}

func pathTaken(path string, taken map[string]struct{}, checkDisk bool) bool {
	if _, ok := taken[strings.ToLower(path)]; ok {
		return true
	}
	if !checkDisk {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func claim(path string, taken map[string]struct{}) {
	taken[strings.ToLower(path)] = struct{}{}
}
