// Package pdb discovers newly released PDB entries through the PDBe search
// service.
package pdb
