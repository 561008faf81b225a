package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	// baseDir/
	//   store/ (.vellum/)
	//     docs/
	//       abc/
	//   decoy/ (.vellum file, not a directory)
	//   empty/
	baseDir := t.TempDir()
	storeDir := filepath.Join(baseDir, "store")
	docsDir := filepath.Join(storeDir, "docs")
	shardDir := filepath.Join(docsDir, "abc")
	decoyDir := filepath.Join(baseDir, "decoy")
	emptyDir := filepath.Join(baseDir, "empty")

	for _, dir := range []string{shardDir, decoyDir, emptyDir, filepath.Join(storeDir, ".vellum")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(decoyDir, ".vellum"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "Store Root", startPath: storeDir, wantRoot: storeDir},
		{name: "Namespace Dir", startPath: docsDir, wantRoot: storeDir},
		{name: "Shard Dir", startPath: shardDir, wantRoot: storeDir},
		{name: "Marker Is A File", startPath: decoyDir, wantErr: true},
		{name: "No Root Found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
				t.Errorf("FindRoot() = %v, want %v", got, tt.wantRoot)
			}
		})
	}
}
