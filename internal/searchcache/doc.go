// Package searchcache persists successful Readarr search responses in a
// local SQLite database so repeated acquire runs can answer a term without
// hitting the API again. Only non-empty responses are stored; misses and
// transport errors always go to the network, which keeps retry behaviour
// identical with the cache disabled.
package searchcache
