package archive

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/rawfiles"
)

// DefaultMassIVEBaseURL is the public MassIVE (UCSD) site.
const DefaultMassIVEBaseURL = "https://massive.ucsd.edu"

var msvPattern = regexp.MustCompile(`MSV\d+`)

// MassIVE counts raw files through the MassIVE dataset API. MassIVE knows
// nothing about ProteomeXchange accessions; the dataset must be addressed
// by its MSV identifier, which the registry publishes as a cross-reference.
// The listing is unfiltered, so entries are classified client-side.
type MassIVE struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// NewMassIVE creates the MassIVE adapter; baseURL defaults to the public site.
func NewMassIVE(client *httpclient.Client, baseURL string, log *zap.SugaredLogger) *MassIVE {
	if baseURL == "" {
		baseURL = DefaultMassIVEBaseURL
	}
	return &MassIVE{client: client, baseURL: baseURL, logger: log}
}

func (m *MassIVE) Source() px.Source {
	return px.SourceMassIVE
}

// massiveID digs the MSV identifier out of the cross-reference set: prefer
// a link named for MassIVE (whose value may be a bare ID or a URL embedding
// one), fall back to any value in the MSV namespace. No identifier means
// the dataset cannot be addressed here at all.
func massiveID(refs px.CrossRefs) (string, bool) {
	if v, ok := refs.Lookup("massive"); ok {
		if id := msvPattern.FindString(v); id != "" {
			return id, true
		}
	}
	if v, ok := refs.ValueWithPrefix("MSV"); ok {
		if id := msvPattern.FindString(v); id != "" {
			return id, true
		}
	}
	return "", false
}

func (m *MassIVE) CountFiles(ctx context.Context, acc px.Accession, refs px.CrossRefs) (Outcome, error) {
	id, ok := massiveID(refs)
	if !ok {
		m.logger.Debugw("no MassIVE identifier in cross-references", "accession", acc)
		return Outcome{}, nil
	}

	requestURL := fmt.Sprintf("%s/ProteoSAFe/datasets_json.jsp?accession=%s", m.baseURL, id)

	var payload struct {
		Files []struct {
			FileName      string `json:"fileName"`
			FileSizeBytes int64  `json:"fileSizeBytes"`
		} `json:"files"`
	}
	if err := m.client.GetJSON(ctx, requestURL, &payload); err != nil {
		if httpclient.IsIncompatible(err) {
			m.logger.Debugw("dataset not in MassIVE", "accession", acc, "massive_id", id, "error", err)
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	var count int
	var total int64
	for _, f := range payload.Files {
		if rawfiles.IsRaw(f.FileName) {
			count++
			total += f.FileSizeBytes
		}
	}

	m.logger.Debugw("MassIVE listing counted",
		"accession", acc,
		"massive_id", id,
		"count", count,
		"total", len(payload.Files))
	return Outcome{Count: count, TotalSize: total, Resolved: true}, nil
}
