// Package querymongo translates query conditions, chains and sort lists
// into MongoDB filter, projection, update and sort documents.
//
// Translation is a single synchronous pass over immutable inputs:
//
//	Condition ──Filter──▶ bson.D  {column: value} | {column: {$op: value}}
//	                              {$and: [l, r]} | {$nor: [doc]}
//	Chain     ──Projection▶ bson.D {column: 1, ...}
//	Chain     ──Update────▶ bson.D {$set: {column: value, ...}}
//	OrderBy   ──Sort──────▶ bson.D {column: 1 | -1, ...}
//
// Field names are resolved through a mapping.PropertyMap. An unknown name
// aborts the translation with an UNKNOWN_PROPERTY error; no partial
// document is ever returned.
//
// Negation is not distributed. Negating a logical node wraps the combined
// document as a whole:
//
//	Not(And(a, b))  ──▶  {$nor: [{$and: [a, b]}]}
//
// Operator tokens live in a Dialect so deployments can rename them.
package querymongo
