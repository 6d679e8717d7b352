// Package mass lifts solo primitives onto channels.
package mass
