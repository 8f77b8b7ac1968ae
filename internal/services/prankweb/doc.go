// Package prankweb talks to the prankweb prediction service: per-entry job
// status and result archive retrieval, over HTTP or from a local prediction
// directory.
package prankweb
