// Package extractors provides the capability registry that maps document
// types to Extractor implementations. Each subpackage knows how to turn
// one family of formats into plain text.
//
// A registry miss or a disabled optional capability is not an error:
// the registry returns placeholder text so ingestion can continue.
package extractors
