// Package core contains the line plumbing: channel helpers, the worker cap carried in
// a context, and the locomotive that drives one line of work.
package core
