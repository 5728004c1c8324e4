// Package sqlite implements the vector store on a single SQLite file.
//
// Each chunk is one row holding the text, a little-endian float32
// embedding blob, and the metadata record as JSON. Similarity queries are
// an exhaustive cosine scan; because every stored vector is L2-normalized
// at write time, cosine distance is 1 minus the dot product. The store is
// opaque to the core, which only sees the driven.VectorStore interface.
package sqlite
