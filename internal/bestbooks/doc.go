// Package bestbooks fetches the publisher's yearly best-books listings and
// manages the local copies the tracker seeds from.
package bestbooks
