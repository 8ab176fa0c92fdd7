package version

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldSHA, oldTime := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = oldVersion, oldSHA, oldTime }()

	Version, GitSHA, BuildTime = "v1.2.0", "abc1234", "2025-01-01T00:00:00Z"
	want := "tree v1.2.0 (commit abc1234, built 2025-01-01T00:00:00Z)"
	if got := String("tree"); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
