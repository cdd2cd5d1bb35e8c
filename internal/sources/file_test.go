package sources

import "testing"

func TestFileSource_Validate(t *testing.T) {
	cases := []struct {
		name    string
		source  FileSource
		wantErr bool
	}{
		{"valid csv", FileSource{Kind: KindCSV, FilePath: "/data/in.csv"}, false},
		{"valid parquet", FileSource{Kind: KindParquet, FilePath: "/data/in.parquet"}, false},
		{"missing path", FileSource{Kind: KindCSV}, true},
		{"unknown kind", FileSource{Kind: "xlsx", FilePath: "/data/in.xlsx"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.source.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFileSource_ProviderKindAndPath(t *testing.T) {
	f := FileSource{Kind: KindNDJSON, FilePath: "/tmp/events.ndjson"}
	if f.ProviderKind() != "ndjson" {
		t.Fatalf("expected ndjson, got %s", f.ProviderKind())
	}
	if f.Path() != "/tmp/events.ndjson" {
		t.Fatalf("expected /tmp/events.ndjson, got %s", f.Path())
	}
}
