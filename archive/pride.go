package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/px"
)

// DefaultPRIDEBaseURL is the public PRIDE archive REST API.
const DefaultPRIDEBaseURL = "https://www.ebi.ac.uk/pride/ws/archive/v2"

// PRIDE counts raw files through the PRIDE archive API. PRIDE keys its file
// listing by the ProteomeXchange accession itself and filters by category
// server-side, so no cross-reference translation and no client-side
// classification are needed.
type PRIDE struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// NewPRIDE creates the PRIDE adapter; baseURL defaults to the public API.
func NewPRIDE(client *httpclient.Client, baseURL string, log *zap.SugaredLogger) *PRIDE {
	if baseURL == "" {
		baseURL = DefaultPRIDEBaseURL
	}
	return &PRIDE{client: client, baseURL: baseURL, logger: log}
}

func (p *PRIDE) Source() px.Source {
	return px.SourcePRIDE
}

func (p *PRIDE) CountFiles(ctx context.Context, acc px.Accession, _ px.CrossRefs) (Outcome, error) {
	requestURL := fmt.Sprintf("%s/files?accession=%s&fileCategory=RAW", p.baseURL, acc)

	var payload struct {
		Embedded struct {
			Files []struct {
				FileName      string `json:"fileName"`
				FileSizeBytes int64  `json:"fileSizeBytes"`
			} `json:"files"`
		} `json:"_embedded"`
	}
	if err := p.client.GetJSON(ctx, requestURL, &payload); err != nil {
		if httpclient.IsIncompatible(err) {
			p.logger.Debugw("dataset not in PRIDE", "accession", acc, "error", err)
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	var total int64
	for _, f := range payload.Embedded.Files {
		total += f.FileSizeBytes
	}

	p.logger.Debugw("PRIDE listing counted",
		"accession", acc,
		"count", len(payload.Embedded.Files))
	return Outcome{Count: len(payload.Embedded.Files), TotalSize: total, Resolved: true}, nil
}
