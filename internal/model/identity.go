package model

// DeclID is an opaque, stable handle for one named declaration within one
// translation-unit analysis. Two handles compare equal iff the front-end
// considers them the same declaration. It is never dereferenced as content
// by anything in this package; front-ends are free to back it with a node
// pointer, an interned counter, or anything else that satisfies identity.
type DeclID uint64
