package archive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/px"
	"github.com/pxharvest/pxharvest/rawfiles"
)

// DefaultIProXBaseURL is the public iProX site.
const DefaultIProXBaseURL = "https://www.iprox.cn"

// IProX counts raw files through the iProX project API. iProX accepts the
// ProteomeXchange accession directly as its project key, but its API has
// shipped more than one response shape, so both known field spellings are
// accepted. The listing is unfiltered, so entries are classified
// client-side.
type IProX struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// NewIProX creates the iProX adapter; baseURL defaults to the public site.
func NewIProX(client *httpclient.Client, baseURL string, log *zap.SugaredLogger) *IProX {
	if baseURL == "" {
		baseURL = DefaultIProXBaseURL
	}
	return &IProX{client: client, baseURL: baseURL, logger: log}
}

func (i *IProX) Source() px.Source {
	return px.SourceIProX
}

type iproxFile struct {
	Name     string `json:"name"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	FileSize int64  `json:"fileSize"`
}

func (f iproxFile) name() string {
	if f.Name != "" {
		return f.Name
	}
	return f.FileName
}

func (f iproxFile) size() int64 {
	if f.Size != 0 {
		return f.Size
	}
	return f.FileSize
}

func (i *IProX) CountFiles(ctx context.Context, acc px.Accession, _ px.CrossRefs) (Outcome, error) {
	requestURL := fmt.Sprintf("%s/api/project/%s/files", i.baseURL, acc)

	var payload struct {
		Data  []iproxFile `json:"data"`
		Files []iproxFile `json:"files"`
	}
	if err := i.client.GetJSON(ctx, requestURL, &payload); err != nil {
		if httpclient.IsIncompatible(err) {
			i.logger.Debugw("dataset not in iProX", "accession", acc, "error", err)
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	entries := payload.Data
	if len(entries) == 0 {
		entries = payload.Files
	}

	var count int
	var total int64
	for _, f := range entries {
		if rawfiles.IsRaw(f.name()) {
			count++
			total += f.size()
		}
	}

	i.logger.Debugw("iProX listing counted",
		"accession", acc,
		"count", count,
		"total", len(entries))
	return Outcome{Count: count, TotalSize: total, Resolved: true}, nil
}
