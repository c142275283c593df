package discovery

import (
	"testing"

	"github.com/pxharvest/pxharvest/px"
)

func TestExtractAccessions(t *testing.T) {
	html := `
<html><body>
  <a href="?pxid=PXD055745">PXD055745</a>
  <a href="https://proteomecentral.proteomexchange.org/ui?pxid=PXD000001">PXD000001</a>
  <a href="/about">About</a>
  <a href="?pxid=PXD055745">PXD055745 again</a>
  <a href="?pxid=PXD017905&outputMode=XML">PXD017905</a>
</body></html>`

	got := ExtractAccessions(html)
	want := []px.Accession{"PXD055745", "PXD000001", "PXD017905"}

	if len(got) != len(want) {
		t.Fatalf("ExtractAccessions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("accession[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractAccessionsEscapedAmpersand(t *testing.T) {
	// page.HTML() serializes attribute ampersands as entities.
	html := `<a href="/ui?view=dataset&amp;pxid=PXD000561">PXD000561</a>`

	got := ExtractAccessions(html)
	if len(got) != 1 || got[0] != "PXD000561" {
		t.Errorf("ExtractAccessions() = %v, want [PXD000561]", got)
	}
}

func TestExtractAccessionsStopsAtQuote(t *testing.T) {
	// The accession must not bleed into the surrounding markup.
	html := `<a href="?pxid=PXD000001" class="result">x</a>`

	got := ExtractAccessions(html)
	if len(got) != 1 || got[0] != "PXD000001" {
		t.Errorf("ExtractAccessions() = %v, want [PXD000001]", got)
	}
}

func TestExtractAccessionsNoMatches(t *testing.T) {
	if got := ExtractAccessions(`<html><body><p>no datasets here</p></body></html>`); got != nil {
		t.Errorf("ExtractAccessions() = %v, want nil", got)
	}
}
