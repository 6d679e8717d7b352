// Package stages holds the stages that turn a partition's token stream into training
// tasks: sentence grouping, word filtering, fan-out over task ids and a final sink.
//
// Each New function returns a pipe.Factory so stages can be listed in declaration order
// and positioned by pipe.Build.
package stages
