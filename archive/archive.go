// Package archive implements the per-repository counting strategies: one
// adapter per hosting archive, each speaking that archive's own listing
// API, all normalized to a single Outcome shape.
package archive

import (
	"context"

	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/internal/httpclient"
	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/px"
)

// Outcome is an adapter's answer for one dataset.
//
// Resolved=false means "this archive could not account for the dataset,
// try the next stage" and is not an error. Resolved=true with Count=0 is a
// real answer: the archive looked and the dataset has no raw files.
type Outcome struct {
	Count     int
	TotalSize int64
	Resolved  bool
}

// Adapter is one archive's counting strategy. Implementations return an
// error only for transport-level trouble (timeouts, exhausted retries);
// "dataset not found here" and "listing shaped wrong" come back as an
// unresolved Outcome with a nil error so the caller can fall through.
type Adapter interface {
	// Source labels results produced by this adapter.
	Source() px.Source
	// CountFiles asks the archive how many raw files the dataset has.
	CountFiles(ctx context.Context, acc px.Accession, refs px.CrossRefs) (Outcome, error)
}

// Config wires the shared transport and endpoint overrides into the
// adapter set. Base URLs default to the public archives when empty.
type Config struct {
	Client *httpclient.Client
	Logger *zap.SugaredLogger

	PRIDEBaseURL   string
	MassIVEBaseURL string
	JPOSTBaseURL   string
	IProXBaseURL   string
}

// Adapters holds one adapter per supported archive.
type Adapters struct {
	pride   *PRIDE
	massive *MassIVE
	jpost   *JPOST
	iprox   *IProX
}

// New builds the full adapter set from one shared transport.
func New(config Config) *Adapters {
	log := config.Logger
	if log == nil {
		log = logger.Logger
	}
	return &Adapters{
		pride:   NewPRIDE(config.Client, config.PRIDEBaseURL, log),
		massive: NewMassIVE(config.Client, config.MassIVEBaseURL, log),
		jpost:   NewJPOST(config.Client, config.JPOSTBaseURL, log),
		iprox:   NewIProX(config.Client, config.IProXBaseURL, log),
	}
}

// ForRepository returns the adapter for a hosting repository. A repository
// outside the known set (including Unknown) has no adapter, and the caller
// falls through to the document scan instead.
func (a *Adapters) ForRepository(repo px.Repository) (Adapter, bool) {
	switch repo {
	case px.RepositoryPRIDE:
		return a.pride, true
	case px.RepositoryMassIVE:
		return a.massive, true
	case px.RepositoryJPOST:
		return a.jpost, true
	case px.RepositoryIProX:
		return a.iprox, true
	default:
		return nil, false
	}
}
