// Package skeleton grows branching tree skeletons from clouds of attractor
// points and annotates them with branch radii.
//
// A skeleton is an append-only arena of branches addressed by index. The
// root always lives at index 0 and every child is appended after its parent,
// so a parent index is strictly smaller than any of its children. Growth
// follows the space colonization rules: attractor points pull the nearest
// branch end towards them until a branch end gets within the kill range,
// at which point the attractor is consumed. When no attractor is in reach
// the frontier leaves keep extending along their own heading.
//
// Radii are assigned afterwards by a post-order pass that merges child radii
// with a generalized mean exponent (pipe model).
package skeleton
