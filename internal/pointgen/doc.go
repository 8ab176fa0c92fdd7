// Package pointgen produces attractor clouds: seeded samples inside simple
// solids or inside a closed mesh, plus helpers to move, scale and thin them.
package pointgen
