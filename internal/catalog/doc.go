// Package catalog talks to the remote metadata catalog API.
//
// Every endpoint returns a Response: either decoded data, a synthesized
// Status for non-2xx replies, or NotFound when the server reports that it has
// no metadata. Only transport failures and unparsable bodies surface as
// errors, and those are always transient.
package catalog
