// Package mesher turns branch graphs into meshes: a line skeleton for
// inspection and a solid of capped frustums and joint spheres for rendering,
// optionally decorated with a leaf fragment at every branch tip.
package mesher
