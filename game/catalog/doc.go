// Package catalog holds the static airport list players travel between.
//
// A Catalog is loaded once at startup, either from the embedded default set or
// from a JSON array file, and is read-only afterwards. Records are served to
// clients as they were loaded so fields the server does not know about pass
// through untouched.
package catalog
