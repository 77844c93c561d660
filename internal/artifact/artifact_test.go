package artifact

import (
	"errors"
	"testing"
)

func TestCoordinate(t *testing.T) {
	a := Artifact{Group: "org.apache.commons", Name: "commons-lang3", Version: "3.14.0"}
	want := "org.apache.commons:commons-lang3:3.14.0"

	if got := a.Coordinate(); got != want {
		t.Errorf("Coordinate() = %q, want %q", got, want)
	}
	if got := a.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Artifact
		wantErr bool
	}{
		{
			name:  "valid",
			input: "com.google.guava:guava:33.0.0-jre",
			want:  Artifact{Group: "com.google.guava", Name: "guava", Version: "33.0.0-jre"},
		},
		{
			name:    "missing version",
			input:   "com.google.guava:guava",
			wantErr: true,
		},
		{
			name:    "too many parts",
			input:   "a:b:c:d",
			wantErr: true,
		},
		{
			name:    "empty part",
			input:   "com.google.guava::33.0.0-jre",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrBadCoordinate) {
					t.Fatalf("ParseCoordinate(%q) error = %v, want ErrBadCoordinate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinate(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
