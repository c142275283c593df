package archive

import (
	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/logger"
	"github.com/pxharvest/pxharvest/rawfiles"
	"github.com/pxharvest/pxharvest/registry"
)

// XMLFallback squeezes a count out of the registry announcement itself. It
// never performs I/O: the resolver already holds the parsed document, so
// both entry points here are pure scans over it.
type XMLFallback struct {
	logger *zap.SugaredLogger
}

// NewXMLFallback creates the document-scan strategy.
func NewXMLFallback(log *zap.SugaredLogger) *XMLFallback {
	if log == nil {
		log = logger.Logger
	}
	return &XMLFallback{logger: log}
}

// Shortcut classifies the file list embedded in the announcement, if any.
// It resolves only on a positive count: an absent or raw-free embedded list
// is no reason to skip asking the hosting archive, which may know more.
func (x *XMLFallback) Shortcut(doc *registry.Document) Outcome {
	if doc == nil {
		return Outcome{}
	}
	files := doc.EmbeddedFiles()
	if len(files) == 0 {
		return Outcome{}
	}
	count, total := rawfiles.Count(files)
	if count == 0 {
		return Outcome{}
	}
	x.logger.Debugw("embedded file list matched", "count", count, "total", len(files))
	return Outcome{Count: count, TotalSize: total, Resolved: true}
}

// FullScan is the last-resort strategy: anything in the announcement that
// looks like dataset content is counted. An embedded file list wins and is
// authoritative even when it classifies to zero. Failing that, FTP
// locations are counted: links whose basename classifies as a raw file
// when any does, otherwise one per link, since legacy announcements tend
// to link whole directories with no classifiable name.
func (x *XMLFallback) FullScan(doc *registry.Document) Outcome {
	if doc == nil {
		return Outcome{}
	}

	if files := doc.EmbeddedFiles(); len(files) > 0 {
		count, total := rawfiles.Count(files)
		x.logger.Debugw("full scan used embedded file list", "count", count)
		return Outcome{Count: count, TotalSize: total, Resolved: true}
	}

	links := doc.FTPLinkValues()
	if len(links) == 0 {
		return Outcome{}
	}

	var count int
	for _, link := range links {
		if rawfiles.IsRaw(registry.LinkBasename(link)) {
			count++
		}
	}
	if count == 0 {
		count = len(links)
	}
	x.logger.Debugw("full scan counted ftp links", "count", count, "total", len(links))
	return Outcome{Count: count, Resolved: true}
}
