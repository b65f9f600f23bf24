package paths

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestDataDir_Files(t *testing.T) {
	d := DataDir{Root: filepath.Join("srv", "mark")}

	for path, want := range map[string]string{
		d.PID():            "daemon.pid",
		d.Config():         "config.toml",
		d.Log():            "daemon.log",
		d.Env():            ".env",
		d.LegacySettings(): "settings.jsonc",
	} {
		if filepath.Dir(path) != d.Root {
			t.Errorf("%q is not directly under %q", path, d.Root)
		}
		if filepath.Base(path) != want {
			t.Errorf("%q: base = %q, want %q", path, filepath.Base(path), want)
		}
	}
}

func TestDataDir_RelativeRoot(t *testing.T) {
	var d DataDir
	if d.Config() != ConfigFile || d.PID() != PIDFile {
		t.Errorf("empty root gave %q and %q, want bare file names", d.Config(), d.PID())
	}
}

func TestDefault_UnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}

	if got, want := Default().Root, filepath.Join(home, ".mark"); got != want {
		t.Errorf("Default().Root = %q, want %q", got, want)
	}
}

func TestDefault_NoHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("os.UserHomeDir has other fallbacks off Linux")
	}
	t.Setenv("HOME", "")

	if got, want := Default().Root, filepath.Join(".", ".mark"); got != want {
		t.Errorf("Default().Root = %q, want %q", got, want)
	}
}
