// Package registry fetches and interprets ProteomeXchange dataset
// announcements: the canonical, machine-readable record of which archive
// hosts a dataset, its external cross-references, and (sometimes) an
// embedded file listing.
package registry

import (
	"path"
	"strconv"
	"strings"

	"github.com/pxharvest/pxharvest/px"
)

// CVParam is a controlled-vocabulary name/value pair as published in
// announcement documents.
type CVParam struct {
	CVRef     string `xml:"cvRef,attr"`
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}

// paramHolder is the shape shared by the *List container children: an
// element whose payload is just cvParams.
type paramHolder struct {
	Params []CVParam `xml:"cvParam"`
}

// Contact is one ContactList entry; roles and names both arrive as cvParams.
type Contact struct {
	ID     string    `xml:"id,attr"`
	Params []CVParam `xml:"cvParam"`
}

// Instrument is one InstrumentList entry; the model name is a cvParam name.
type Instrument struct {
	ID     string    `xml:"id,attr"`
	Params []CVParam `xml:"cvParam"`
}

// DatasetFile is one embedded file record. Size, when published at all,
// hides in a cvParam.
type DatasetFile struct {
	ID     string    `xml:"id,attr"`
	Name   string    `xml:"name,attr"`
	Params []CVParam `xml:"cvParam"`
}

// Document models a GetDataset announcement. The format has drifted over
// the registry's lifetime, so the model accepts both the current shape
// (hostingRepository attribute on DatasetSummary) and the older explicit
// Repository element, and tolerates absent sections everywhere.
type Document struct {
	ID            string `xml:"id,attr"`
	FormatVersion string `xml:"formatVersion,attr"`

	Summary struct {
		Title             string `xml:"title,attr"`
		HostingRepository string `xml:"hostingRepository,attr"`
		AnnounceDate      string `xml:"announceDate,attr"`
		Description       string `xml:"Description"`
	} `xml:"DatasetSummary"`

	Repository struct {
		Name string `xml:"name,attr"`
	} `xml:"Repository"`

	Identifiers  []paramHolder `xml:"DatasetIdentifierList>DatasetIdentifier"`
	DatasetLinks []paramHolder `xml:"DatasetLinkList>DatasetLink"`
	FullLinks    []paramHolder `xml:"FullDatasetLinkList>FullDatasetLink"`

	Files       []DatasetFile `xml:"DatasetFileList>DatasetFile"`
	Instruments []Instrument  `xml:"InstrumentList>Instrument"`
	Contacts    []Contact     `xml:"ContactList>Contact"`
	Keywords    []CVParam     `xml:"KeywordList>cvParam"`

	// Legacy announcements list FTP locations as bare elements
	FTPLinks []string `xml:"ftpLink"`
}

// DeclaredRepository returns the hosting-repository string exactly as the
// registry published it, or "" when the document does not declare one.
func (d *Document) DeclaredRepository() string {
	if d.Repository.Name != "" {
		return d.Repository.Name
	}
	return d.Summary.HostingRepository
}

// CrossRefs collects every named external link in the document, verbatim.
// Identifier entries carry archive accessions (MSV…, JPST…, DOIs); link
// entries carry archive landing/FTP URIs.
func (d *Document) CrossRefs() px.CrossRefs {
	var refs px.CrossRefs
	appendParams := func(holders []paramHolder) {
		for _, h := range holders {
			for _, p := range h.Params {
				if p.Name != "" && p.Value != "" {
					refs = append(refs, px.CrossRef{Name: p.Name, Value: p.Value})
				}
			}
		}
	}
	appendParams(d.Identifiers)
	appendParams(d.DatasetLinks)
	appendParams(d.FullLinks)
	return refs
}

// EmbeddedFiles returns the file records embedded in the document, or nil
// when no DatasetFileList was announced.
func (d *Document) EmbeddedFiles() []px.FileRecord {
	if len(d.Files) == 0 {
		return nil
	}
	records := make([]px.FileRecord, 0, len(d.Files))
	for _, f := range d.Files {
		rec := px.FileRecord{Name: f.Name}
		for _, p := range f.Params {
			if strings.Contains(strings.ToLower(p.Name), "size") {
				if size, err := strconv.ParseInt(p.Value, 10, 64); err == nil {
					rec.Size = size
				}
			}
		}
		records = append(records, rec)
	}
	return records
}

// FTPLinkValues returns every FTP location the document points at: bare
// ftpLink elements plus any dataset-link cvParam whose value is an ftp URI.
func (d *Document) FTPLinkValues() []string {
	var links []string
	for _, l := range d.FTPLinks {
		if l = strings.TrimSpace(l); l != "" {
			links = append(links, l)
		}
	}
	collect := func(holders []paramHolder) {
		for _, h := range holders {
			for _, p := range h.Params {
				if strings.Contains(strings.ToLower(p.Value), "ftp") {
					links = append(links, p.Value)
				}
			}
		}
	}
	collect(d.DatasetLinks)
	collect(d.FullLinks)
	return links
}

// LinkBasename extracts the final path segment of an FTP location so it can
// be run through the raw-file classifier.
func LinkBasename(link string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(link), "/")
	return path.Base(trimmed)
}

// Metadata extracts the descriptive fields used for inventory reports.
func (d *Document) Metadata() px.Metadata {
	meta := px.Metadata{
		Title:       d.Summary.Title,
		Description: strings.TrimSpace(d.Summary.Description),
	}

	for _, contact := range d.Contacts {
		isLabHead := false
		name := ""
		for _, p := range contact.Params {
			switch strings.ToLower(p.Name) {
			case "lab head":
				isLabHead = true
			case "contact name":
				name = p.Value
			}
		}
		if isLabHead && name != "" {
			meta.LabHead = name
			break
		}
	}

	for _, inst := range d.Instruments {
		for _, p := range inst.Params {
			if p.Name != "" {
				meta.Instruments = append(meta.Instruments, p.Name)
				break
			}
		}
	}

	for _, kw := range d.Keywords {
		if kw.Value != "" {
			meta.Keywords = append(meta.Keywords, kw.Value)
		}
	}

	return meta
}
