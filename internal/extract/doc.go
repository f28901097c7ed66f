// Package extract turns fetched gallery pages and project documents into
// crawler.Extraction values.
//
// Extractors never fail on bad upstream data: a page without a project link
// or a document with malformed sections yields a KindFailed extraction or
// zero counts. Only an input of an unsupported Go type is an error.
package extract
