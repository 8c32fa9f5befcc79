// Package dom defines the narrow read-only view of an HTML document that the
// detection strategies are written against, and a goquery-backed
// implementation of it.
//
// Strategies only ever need to find descendants by selector, walk to parents
// and children, read attributes and read text. Keeping that surface small
// lets any HTML parser back the engine.
package dom
