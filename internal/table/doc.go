// Package table implements the table element: a grid of cell documents
// laid out as a single inline unit.
//
// Layout runs in two passes. The first measures every cell with a
// throwaway layout to settle column widths and row heights; the second,
// on the first placement in a surface, creates one real layout per cell in
// the surface's batch together with the cell backgrounds and the border.
// Moving the table afterwards only translates that geometry.
package table
