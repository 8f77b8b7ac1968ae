// Package registry tracks PDB entries through the synchronization lifecycle
// and persists the collection as a single JSON document.
package registry
