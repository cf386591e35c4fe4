package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "1.2.3"

	got := String()
	if !strings.HasPrefix(got, "gaze 1.2.3 (commit ") {
		t.Errorf("String() = %q", got)
	}
}
