package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/volatiletech/null/v8"
)

// OptionalFloat64 is a null.Float64 that remembers whether it was present in the decoded JSON,
// so an explicit null (Set, not Valid) can clear a value while an absent field leaves it alone.
type OptionalFloat64 struct {
	null.Float64
	Set bool
}

func (f *OptionalFloat64) UnmarshalJSON(data []byte) error {
	f.Set = true
	return f.Float64.UnmarshalJSON(data)
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Getwd returns the module root (the closest parent directory holding a go.mod),
// falling back to the current working directory.
// go test changes the working directory to the package being tested.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
