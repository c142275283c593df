package registry

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
)

// DefaultBaseURL is the ProteomeXchange central registry dataset endpoint.
const DefaultBaseURL = "https://proteomecentral.proteomexchange.org/cgi/GetDataset"

// Config configures a Resolver.
type Config struct {
	// BaseURL overrides the registry endpoint, mainly for tests.
	BaseURL string
	// Client is the shared HTTP transport. Required.
	Client *httpclient.Client
	// Logger defaults to the package-level logger when nil.
	Logger *zap.SugaredLogger
}

// Resolver answers "who hosts this dataset" by fetching the announcement
// document from the central registry.
type Resolver struct {
	baseURL string
	client  *httpclient.Client
	logger  *zap.SugaredLogger
}

// NewResolver creates a Resolver against the central registry.
func NewResolver(config Config) *Resolver {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	log := config.Logger
	if log == nil {
		log = logger.Logger
	}
	return &Resolver{
		baseURL: baseURL,
		client:  config.Client,
		logger:  log,
	}
}

// Resolution is everything one registry fetch tells us about a dataset.
// Document stays attached so later stages can re-scan the announcement
// without a second fetch.
type Resolution struct {
	Accession          px.Accession
	Repository         px.Repository
	DeclaredRepository string
	CrossRefs          px.CrossRefs
	Metadata           px.Metadata
	Document           *Document
}

// Resolve fetches the announcement for acc and extracts the hosting
// repository, cross-references and descriptive metadata.
//
// A missing or unrecognized hosting-repository field is not an error: the
// returned Resolution carries RepositoryUnknown and whatever else the
// document did declare. Resolve returns an error only when the document
// itself could not be fetched or parsed; even then the Resolution is
// usable as an unresolved placeholder.
func (r *Resolver) Resolve(ctx context.Context, acc px.Accession) (Resolution, error) {
	res := Resolution{
		Accession:  acc,
		Repository: px.RepositoryUnknown,
	}

	requestURL := fmt.Sprintf("%s?ID=%s&outputMode=XML", r.baseURL, url.QueryEscape(string(acc)))
	body, err := r.client.Get(ctx, requestURL)
	if err != nil {
		return res, errors.Wrapf(err, "fetching registry announcement for %s", acc)
	}

	var doc Document
	if err := xml.Unmarshal(body, &doc); err != nil {
		return res, errors.Wrapf(err, "parsing registry announcement for %s", acc)
	}

	res.Document = &doc
	res.CrossRefs = doc.CrossRefs()
	res.Metadata = doc.Metadata()
	res.DeclaredRepository = doc.DeclaredRepository()

	if res.DeclaredRepository == "" {
		// Old announcements omit the repository field; the archive name
		// still tends to appear somewhere in the announcement text.
		res.DeclaredRepository = px.DetectRepositoryName(string(body))
		if res.DeclaredRepository != "" {
			r.logger.Debugw("repository recovered from announcement text",
				"accession", acc,
				"repository", res.DeclaredRepository)
		}
	}

	res.Repository = px.ParseRepository(res.DeclaredRepository)

	r.logger.Debugw("dataset resolved",
		"accession", acc,
		"repository", res.Repository,
		"cross_refs", len(res.CrossRefs))

	return res, nil
}
