package prefix

import "testing"

func TestUnder(t *testing.T) {
	tests := []struct {
		name string
		path string
		pre  string
		want bool
	}{
		{name: "inside", path: "/opt/homebrew/lib/libfoo.dylib", pre: "/opt/homebrew", want: true},
		{name: "prefix itself", path: "/opt/homebrew", pre: "/opt/homebrew", want: true},
		{name: "outside", path: "/usr/lib/libfoo.dylib", pre: "/opt/homebrew", want: false},
		{name: "sibling with common name prefix", path: "/opt/homebrew2/lib/libfoo.dylib", pre: "/opt/homebrew", want: false},
		{name: "parent", path: "/opt", pre: "/opt/homebrew", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := under(tt.path, tt.pre); got != tt.want {
				t.Errorf("under(%q, %q) = %v, want %v", tt.path, tt.pre, got, tt.want)
			}
		})
	}
}
