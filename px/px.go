// Package px defines the core ProteomeXchange domain types shared across
// the resolver, archive adapters, reconciliation engine and exporters.
package px

import (
	"fmt"
	"strings"
)

// Accession is a ProteomeXchange dataset accession (e.g. "PXD000001").
// Opaque and caller-supplied; never synthesized by this tool.
type Accession string

func (a Accession) String() string {
	return string(a)
}

// Repository identifies which downstream archive hosts a dataset's files.
// Closed set: adapter dispatch switches over these values, never over raw
// registry strings.
type Repository string

const (
	RepositoryPRIDE   Repository = "PRIDE"
	RepositoryMassIVE Repository = "MassIVE"
	RepositoryJPOST   Repository = "jPOST"
	RepositoryIProX   Repository = "iProX"
	RepositoryUnknown Repository = "Unknown"
)

// ParseRepository maps a declared repository name from the registry onto the
// closed Repository set. Matching is substring-based and case-insensitive
// because the registry is not consistent about casing or decoration
// ("PRIDE", "PrideArchive", "jPOST Repository" all occur in the wild).
// Names that match no known archive (including PeptideAtlas, which has no
// file-listing API) map to RepositoryUnknown.
func ParseRepository(name string) Repository {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "pride"):
		return RepositoryPRIDE
	case strings.Contains(lower, "massive"):
		return RepositoryMassIVE
	case strings.Contains(lower, "jpost"):
		return RepositoryJPOST
	case strings.Contains(lower, "iprox"):
		return RepositoryIProX
	default:
		return RepositoryUnknown
	}
}

// knownArchiveNames is scanned, in order, when a registry document declares
// no Repository element and the hosting archive has to be guessed from the
// announcement text. PeptideAtlas is recognized so the declared name survives
// into reports even though no adapter exists for it.
var knownArchiveNames = []string{"PRIDE", "MassIVE", "iProX", "jPOST", "PeptideAtlas"}

// DetectRepositoryName scans free text for the first known archive name and
// returns it verbatim, or "" if none occurs.
func DetectRepositoryName(text string) string {
	lower := strings.ToLower(text)
	for _, name := range knownArchiveNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return ""
}

// CrossRef is one external link published by the registry for a dataset:
// a link-type name (e.g. "MassIVE dataset identifier") and an identifier
// in the target archive's own namespace (e.g. "MSV000078556").
type CrossRef struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CrossRefs is the full external-link set for one dataset, produced once by
// the identity resolver and read-only afterward.
type CrossRefs []CrossRef

// Lookup returns the value of the first cross-reference whose name contains
// the given fragment, case-insensitively.
func (c CrossRefs) Lookup(nameFragment string) (string, bool) {
	fragment := strings.ToLower(nameFragment)
	for _, ref := range c {
		if strings.Contains(strings.ToLower(ref.Name), fragment) {
			return ref.Value, true
		}
	}
	return "", false
}

// ValueWithPrefix returns the first cross-reference value carrying the given
// identifier prefix (e.g. "MSV", "JPST"). Used as a fallback when the
// link-type name does not identify the archive but the value's namespace does.
func (c CrossRefs) ValueWithPrefix(prefix string) (string, bool) {
	for _, ref := range c {
		if strings.HasPrefix(ref.Value, prefix) {
			return ref.Value, true
		}
	}
	return "", false
}

// FileRecord is a single file entry as listed by an archive or embedded in
// a registry document: name plus size in bytes when declared (0 otherwise).
// Transient; exists only within one adapter invocation.
type FileRecord struct {
	Name string `json:"name"`
	Size int64  `json:"size,omitempty"`
}

// Metadata carries the descriptive registry fields for a dataset. Filled
// opportunistically from the same document the resolver already fetched;
// empty fields mean the registry did not publish them.
type Metadata struct {
	Title       string   `json:"title,omitempty"`
	LabHead     string   `json:"lab_head,omitempty"`
	Description string   `json:"description,omitempty"`
	Instruments []string `json:"instruments,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Source records which step of the reconciliation chain produced the
// accepted file count.
type Source string

const (
	SourceEmbedded Source = "embedded" // file list embedded in the registry document
	SourcePRIDE    Source = "pride"    // PRIDE archive API
	SourceMassIVE  Source = "massive"  // MassIVE archive API
	SourceJPOST    Source = "jpost"    // jPOST archive API
	SourceIProX    Source = "iprox"    // iProX archive API
	SourceXMLScan  Source = "xml-scan" // full registry-document scan (FTP links)
	SourceNone     Source = "none"     // nothing resolved
)

// Result is the terminal record for one accession. Exactly one is produced
// per submitted accession, whatever happens along the way; failures are
// carried in Success/Err, never by omitting the record.
type Result struct {
	Accession          Accession  `json:"accession"`
	Repository         Repository `json:"repository"`
	DeclaredRepository string     `json:"declared_repository,omitempty"`
	RawFileCount       int        `json:"raw_file_count"`
	TotalSizeBytes     int64      `json:"total_size_bytes,omitempty"`
	Source             Source     `json:"source"`
	Success            bool       `json:"success"`
	Err                string     `json:"error,omitempty"`
	Metadata           Metadata   `json:"metadata,omitempty"`
}

// RepositoryName returns the archive name for reports: the declared registry
// string when one was seen, else the closed-set name.
func (r Result) RepositoryName() string {
	if r.Repository == RepositoryUnknown && r.DeclaredRepository != "" {
		return r.DeclaredRepository
	}
	return string(r.Repository)
}

// TotalSizeGB converts the summed byte size to gigabytes, the unit the
// inventory spreadsheets report.
func (r Result) TotalSizeGB() float64 {
	return float64(r.TotalSizeBytes) / (1024 * 1024 * 1024)
}

// DatasetURL returns the registry landing page for an accession.
func DatasetURL(a Accession) string {
	return fmt.Sprintf("https://proteomecentral.proteomexchange.org/ui?pxid=%s", a)
}
