// Package scan enumerates candidate media files under an input directory,
// either its direct children or the whole tree, in a reproducible order.
package scan
