package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pxharvest/pxharvest/px"
)

func TestJPOSTID(t *testing.T) {
	tests := []struct {
		name   string
		refs   px.CrossRefs
		want   string
		wantOK bool
	}{
		{
			name:   "named cross-reference holding a landing page",
			refs:   px.CrossRefs{{Name: "jPOST dataset URI", Value: "https://repository.jpostdb.org/entry/JPST000265"}},
			want:   "JPST000265",
			wantOK: true,
		},
		{
			name:   "prefix fallback",
			refs:   px.CrossRefs{{Name: "Dataset Identifier", Value: "JPST000265"}},
			want:   "JPST000265",
			wantOK: true,
		},
		{
			name:   "nothing usable",
			refs:   px.CrossRefs{{Name: "PRIDE project URI", Value: "http://www.ebi.ac.uk/pride/archive/projects/PXD000001"}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := jpostID(tt.refs)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("jpostID() = %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestJPOSTCountFiles(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"files":[
			{"name":"sample_A.raw","size":4096},
			{"name":"sample_B.raw","size":4096},
			{"name":"README.txt","size":12}
		]}`))
	}))
	defer server.Close()

	refs := px.CrossRefs{{Name: "jPOST dataset identifier", Value: "JPST000265"}}
	adapter := NewJPOST(newTestClient(t, server), server.URL, testLogger())
	out, err := adapter.CountFiles(context.Background(), "PXD008440", refs)
	if err != nil {
		t.Fatalf("CountFiles failed: %v", err)
	}

	if gotPath != "/api/datasets/JPST000265/files" {
		t.Errorf("path = %q", gotPath)
	}
	if !out.Resolved || out.Count != 2 || out.TotalSize != 8192 {
		t.Errorf("outcome = %+v, want 2 raw files / 8192 bytes", out)
	}
}

func TestJPOSTWithoutIdentifierMakesNoRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	adapter := NewJPOST(newTestClient(t, server), server.URL, testLogger())
	out, err := adapter.CountFiles(context.Background(), "PXD008440", nil)
	if err != nil {
		t.Fatalf("missing identifier should not be an error, got: %v", err)
	}
	if out.Resolved {
		t.Errorf("outcome = %+v, want unresolved", out)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("requests = %d, want none without a JPST identifier", got)
	}
}
