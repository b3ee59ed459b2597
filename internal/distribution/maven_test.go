package distribution

import "testing"

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    Coordinate
		wantErr bool
	}{
		{
			name: "plain",
			id:   "net.minecraftforge:forge:1.20.1-47.2.0",
			want: Coordinate{Group: "net.minecraftforge", Artifact: "forge", Version: "1.20.1-47.2.0", Extension: "jar"},
		},
		{
			name: "with classifier",
			id:   "org.lwjgl:lwjgl:3.3.1:natives-linux",
			want: Coordinate{Group: "org.lwjgl", Artifact: "lwjgl", Version: "3.3.1", Classifier: "natives-linux", Extension: "jar"},
		},
		{
			name: "with extension",
			id:   "net.minecraftforge:installer:1.20.1@zip",
			want: Coordinate{Group: "net.minecraftforge", Artifact: "installer", Version: "1.20.1", Extension: "zip"},
		},
		{
			name: "classifier and extension",
			id:   "a.b:c:1.0:sources@jar",
			want: Coordinate{Group: "a.b", Artifact: "c", Version: "1.0", Classifier: "sources", Extension: "jar"},
		},
		{name: "too few parts", id: "a:b", wantErr: true},
		{name: "empty part", id: "a::1.0", wantErr: true},
		{name: "empty extension", id: "a:b:1.0@", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCoordinate: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCoordinate(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestCoordinate_RelativePath(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinate
		want string
	}{
		{
			name: "simple",
			c:    Coordinate{Group: "net.minecraftforge", Artifact: "forge", Version: "1.0", Extension: "jar"},
			want: "net/minecraftforge/forge/1.0/forge-1.0.jar",
		},
		{
			name: "with classifier",
			c:    Coordinate{Group: "org.lwjgl", Artifact: "lwjgl", Version: "3.3.1", Classifier: "natives-linux", Extension: "jar"},
			want: "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1-natives-linux.jar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.RelativePath(); got != tt.want {
				t.Errorf("RelativePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
