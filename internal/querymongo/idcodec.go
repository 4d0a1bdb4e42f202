package querymongo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IDCodec converts the external string form of a generated identifier into
// the store's native identifier value.
type IDCodec interface {
	// Name identifies the codec in configuration ("objectid", "uuid").
	Name() string

	// Decode parses s. It fails when s is not a valid external form.
	Decode(s string) (any, error)
}

// ObjectIDCodec decodes 24-character hex strings into primitive.ObjectID.
type ObjectIDCodec struct{}

// Name returns "objectid".
func (ObjectIDCodec) Name() string { return "objectid" }

// Decode parses a hex ObjectID.
func (ObjectIDCodec) Decode(s string) (any, error) {
	return primitive.ObjectIDFromHex(s)
}

// uuidSubtype is the BSON binary subtype for RFC 4122 UUIDs.
const uuidSubtype byte = 0x04

// UUIDCodec decodes canonical UUID strings into subtype 4 binaries.
type UUIDCodec struct{}

// Name returns "uuid".
func (UUIDCodec) Name() string { return "uuid" }

// Decode parses a UUID string.
func (UUIDCodec) Decode(s string) (any, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return primitive.Binary{Subtype: uuidSubtype, Data: u[:]}, nil
}

// CodecFor returns the codec registered under name.
// An empty name selects the ObjectID codec.
func CodecFor(name string) (IDCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "objectid":
		return ObjectIDCodec{}, nil
	case "uuid":
		return UUIDCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown identifier type %q", name)
	}
}
