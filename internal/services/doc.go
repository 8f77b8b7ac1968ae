// Package services holds the error taxonomy shared by the remote service
// clients and the pipeline's failure classification.
package services
