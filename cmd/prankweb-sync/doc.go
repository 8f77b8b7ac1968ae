// Command prankweb-sync keeps a local registry of PDB entries synchronized
// with a prankweb prediction server and publishes completed predictions as
// FunPDBe files.
package main
