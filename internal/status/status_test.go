package status

import "testing"

// ///////////////////////////////////////////////
// ParseType
// ///////////////////////////////////////////////

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"online", Online},
		{"idle", Idle},
		{"dnd", DND},
		{"invisible", Invisible},
		{"DND", DND},
		{" Idle ", Idle},
		{"", Online},
		{"busy", Online},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseType(tt.in); got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeValid(t *testing.T) {
	for _, ty := range []Type{Online, Idle, DND, Invisible} {
		if !ty.Valid() {
			t.Errorf("%q should be valid", ty)
		}
	}
	if Type("away").Valid() {
		t.Error(`"away" should not be valid`)
	}
}

// ///////////////////////////////////////////////
// Format / Clean
// ///////////////////////////////////////////////

func TestFormat(t *testing.T) {
	if got := Format("Listening to ", "Song", ": ", "14:05"); got != "Listening to Song: 14:05" {
		t.Errorf("Format = %q", got)
	}
	if got := Format("", "Song", "", ""); got != "Song" {
		t.Errorf("Format without time = %q", got)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song (Remastered 2011)", "Song"},
		{"Song [Explicit]", "Song"},
		{"Song (feat. X) [Live]", "Song"},
		{"(Intro) Song", "Song"},
		{"Plain Song", "Plain Song"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFallback(t *testing.T) {
	fb := Fallback()
	if fb.Emoji != "❓" || fb.Text != "No status" || fb.Type != Online {
		t.Errorf("Fallback() = %+v", fb)
	}
}
