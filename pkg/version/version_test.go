package version

import "testing"

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  string
		build uint64
	}{
		{"0.0.0.348734", "0.0.0.348734", 348734},
		{"1.2", "1.2", 2},
		{"7", "7", 7},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.String() != tt.want {
				t.Errorf("String() = %q, want %q", v.String(), tt.want)
			}
			if v.Build() != tt.build {
				t.Errorf("Build() = %d, want %d", v.Build(), tt.build)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "1..2", "abc", "1.2.3.4.5", "-1.0", "1.x"} {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.0.0.348734", "0.0.0.348734", 0},
		{"0.0.0.1", "0.0.0.348734", -1},
		{"1.0", "0.9.9.9", 1},
		{"1.0", "1.0.0.0", 0},
		{"1.0.0.1", "1.0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := MustParse(tt.a).Compare(MustParse(tt.b)); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
	if !MustParse("0.0.1").AtLeast(MustParse("0.0.0.500")) {
		t.Error("AtLeast() = false")
	}
}

func TestSupportsProtocol(t *testing.T) {
	if !SupportsProtocol("1") || SupportsProtocol("2") {
		t.Error("SupportsProtocol() mismatch")
	}
}
