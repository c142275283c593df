package archive

import (
	"testing"

	"github.com/pxharvest/pxharvest/registry"
)

func docWithFiles(names ...string) *registry.Document {
	doc := &registry.Document{}
	for _, name := range names {
		doc.Files = append(doc.Files, registry.DatasetFile{Name: name})
	}
	return doc
}

func TestShortcut(t *testing.T) {
	fallback := NewXMLFallback(testLogger())

	tests := []struct {
		name string
		doc  *registry.Document
		want Outcome
	}{
		{
			name: "raw entries among the embedded list",
			doc:  docWithFiles("a.raw", "b.raw", "c.raw", "README.txt", "search.mzid"),
			want: Outcome{Count: 3, Resolved: true},
		},
		{
			name: "embedded list with nothing raw stays unresolved",
			doc:  docWithFiles("README.txt", "checksum.sha1"),
			want: Outcome{},
		},
		{
			name: "no embedded list",
			doc:  &registry.Document{},
			want: Outcome{},
		},
		{
			name: "no document at all",
			doc:  nil,
			want: Outcome{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fallback.Shortcut(tt.doc); got != tt.want {
				t.Errorf("Shortcut() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestShortcutSumsDeclaredSizes(t *testing.T) {
	doc := &registry.Document{}
	doc.Files = []registry.DatasetFile{
		{Name: "a.raw", Params: []registry.CVParam{{Name: "File size in bytes", Value: "1000"}}},
		{Name: "b.raw", Params: []registry.CVParam{{Name: "File size in bytes", Value: "2000"}}},
		{Name: "ignored.txt", Params: []registry.CVParam{{Name: "File size in bytes", Value: "999"}}},
	}

	got := NewXMLFallback(testLogger()).Shortcut(doc)
	want := Outcome{Count: 2, TotalSize: 3000, Resolved: true}
	if got != want {
		t.Errorf("Shortcut() = %+v, want %+v", got, want)
	}
}

func TestFullScan(t *testing.T) {
	fallback := NewXMLFallback(testLogger())

	t.Run("embedded list is authoritative even at zero", func(t *testing.T) {
		got := fallback.FullScan(docWithFiles("README.txt"))
		want := Outcome{Count: 0, Resolved: true}
		if got != want {
			t.Errorf("FullScan() = %+v, want confirmed zero", got)
		}
	})

	t.Run("ftp links with classifiable basenames", func(t *testing.T) {
		doc := &registry.Document{FTPLinks: []string{
			"ftp://host/data/run_01.raw",
			"ftp://host/data/readme.txt",
		}}
		got := fallback.FullScan(doc)
		want := Outcome{Count: 1, Resolved: true}
		if got != want {
			t.Errorf("FullScan() = %+v, want only the raw link counted", got)
		}
	})

	t.Run("directory links count one each", func(t *testing.T) {
		doc := &registry.Document{FTPLinks: []string{
			"ftp://host/pride/data/archive/2012/03/PXD000001/",
			"ftp://host/pride/data/archive/2012/03/PXD000002/",
		}}
		got := fallback.FullScan(doc)
		want := Outcome{Count: 2, Resolved: true}
		if got != want {
			t.Errorf("FullScan() = %+v, want one per link", got)
		}
	})

	t.Run("empty document stays unresolved", func(t *testing.T) {
		if got := fallback.FullScan(&registry.Document{}); got.Resolved {
			t.Errorf("FullScan() = %+v, want unresolved", got)
		}
	})

	t.Run("nil document stays unresolved", func(t *testing.T) {
		if got := fallback.FullScan(nil); got.Resolved {
			t.Errorf("FullScan() = %+v, want unresolved", got)
		}
	})
}
