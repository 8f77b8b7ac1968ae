// Package pipeline sequences one synchronization run: discovery of newly
// released entries, polling of prediction jobs, and conversion of completed
// predictions into published FunPDBe files, with checkpointed registry saves
// between the phases.
package pipeline
