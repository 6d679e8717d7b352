// Package learner drives a corpus through a stage pipeline.
//
// A Learner is the pipeline's coordinator. For every iteration it cuts the input file
// into one partition per worker and runs one line per partition: the partition's word
// stream enters the first stage as a root task, and each task a stage submits is queued
// on the submitting worker and fed to the next stage by the same line. Lines never share
// tasks, so stages see the tasks of one worker in submission order.
package learner
