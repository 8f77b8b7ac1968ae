// Package funpdbe converts p2rank prediction output into FunPDBe JSON
// entries ready for publication.
package funpdbe
