package cli

import (
	"errors"
	"io/fs"

	"github.com/roach88/docdal/internal/daoerr"
	"github.com/roach88/docdal/internal/metadata"
	"github.com/roach88/docdal/internal/queryfile"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration invalid
	ErrCodeNoEntities  = "E003" // No entity definitions found
	ErrCodeLoadFailed  = "E004" // Entity definitions rejected
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeQueryFile   = "E006" // Query file invalid
	ErrCodeConnect     = "E010" // Store unreachable
	ErrCodeDriver      = "E011" // Store rejected the operation
	ErrCodeStatsFailed = "E012" // Statistics database error

	// Translation errors
	ErrCodeUnknownProperty     = "E201"
	ErrCodeUnsupportedOperator = "E202"
	ErrCodeMalformedIdentifier = "E203"
	ErrCodeUnresolvedEntity    = "E204"
	ErrCodeInvalidValue        = "E205"
)

var translationCodes = map[daoerr.Code]string{
	daoerr.CodeUnknownProperty:      ErrCodeUnknownProperty,
	daoerr.CodeUnsupportedOperator:  ErrCodeUnsupportedOperator,
	daoerr.CodeMalformedIdentifier:  ErrCodeMalformedIdentifier,
	daoerr.CodeUnresolvedEntityType: ErrCodeUnresolvedEntity,
	daoerr.CodeInvalidValue:         ErrCodeInvalidValue,
}

// MapErrorToCode picks the CLI error code for err. fallback is used when
// err carries no recognizable category.
func MapErrorToCode(err error, fallback string) string {
	if errors.Is(err, metadata.ErrNoEntities) {
		return ErrCodeNoEntities
	}
	if code, ok := translationCodes[daoerr.CodeOf(err)]; ok {
		return code
	}

	var (
		schemaErr  *metadata.SchemaError
		compileErr *metadata.CompileError
		parseErr   *queryfile.ParseError
	)
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &compileErr):
		return ErrCodeLoadFailed
	case errors.As(err, &parseErr):
		return ErrCodeQueryFile
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	}
	return fallback
}
