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

// DefaultJPOSTBaseURL is the public jPOST repository.
const DefaultJPOSTBaseURL = "https://repository.jpostdb.org"

var jpstPattern = regexp.MustCompile(`JPST\d+`)

// JPOST counts raw files through the jPOST repository API, addressed by the
// JPST identifier from the registry cross-references. The listing is
// unfiltered, so entries are classified client-side.
type JPOST struct {
	client  *httpclient.Client
	baseURL string
	logger  *zap.SugaredLogger
}

// NewJPOST creates the jPOST adapter; baseURL defaults to the public repository.
func NewJPOST(client *httpclient.Client, baseURL string, log *zap.SugaredLogger) *JPOST {
	if baseURL == "" {
		baseURL = DefaultJPOSTBaseURL
	}
	return &JPOST{client: client, baseURL: baseURL, logger: log}
}

func (j *JPOST) Source() px.Source {
	return px.SourceJPOST
}

func jpostID(refs px.CrossRefs) (string, bool) {
	if v, ok := refs.Lookup("jpost"); ok {
		if id := jpstPattern.FindString(v); id != "" {
			return id, true
		}
	}
	if v, ok := refs.ValueWithPrefix("JPST"); ok {
		if id := jpstPattern.FindString(v); id != "" {
			return id, true
		}
	}
	return "", false
}

func (j *JPOST) CountFiles(ctx context.Context, acc px.Accession, refs px.CrossRefs) (Outcome, error) {
	id, ok := jpostID(refs)
	if !ok {
		j.logger.Debugw("no jPOST identifier in cross-references", "accession", acc)
		return Outcome{}, nil
	}

	requestURL := fmt.Sprintf("%s/api/datasets/%s/files", j.baseURL, id)

	var payload struct {
		Files []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"files"`
	}
	if err := j.client.GetJSON(ctx, requestURL, &payload); err != nil {
		if httpclient.IsIncompatible(err) {
			j.logger.Debugw("dataset not in jPOST", "accession", acc, "jpost_id", id, "error", err)
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	var count int
	var total int64
	for _, f := range payload.Files {
		if rawfiles.IsRaw(f.Name) {
			count++
			total += f.Size
		}
	}

	j.logger.Debugw("jPOST listing counted",
		"accession", acc,
		"jpost_id", id,
		"count", count,
		"total", len(payload.Files))
	return Outcome{Count: count, TotalSize: total, Resolved: true}, nil
}
