// Package readarr looks up books and authors in a Readarr instance and can
// add matched books to its library.
package readarr
