// Package metadata resolves entity metadata at registration time.
//
// Entities can be declared three ways:
//
//   - CUE files under an entities directory (LoadDir, CompileEntity)
//   - YAML files validated against an embedded JSON schema (ParseYAML)
//   - Go struct tags (Reflect)
//
// All three produce an *Entity whose PropertyMap is built once and never
// changed. Incomplete metadata fails with UNRESOLVED_ENTITY_TYPE before
// any query is issued.
package metadata
