package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// envelope wraps a bundle payload with integrity metadata.
type envelope struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// Meta describes a stored bundle.
type Meta struct {
	Name    string
	Version string
	SavedAt time.Time
}

// Encode marshals v into a checksummed envelope for name.
func Encode(name string, v any) ([]byte, Meta, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, Meta{}, eris.Wrapf(err, "bundle: marshal %s payload", name)
	}
	env := envelope{
		Name:     name,
		Version:  uuid.NewString(),
		SavedAt:  time.Now().UTC(),
		Checksum: checksum(payload),
		Payload:  payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, Meta{}, eris.Wrapf(err, "bundle: marshal %s envelope", name)
	}
	return data, Meta{Name: env.Name, Version: env.Version, SavedAt: env.SavedAt}, nil
}

// Decode verifies the envelope in data and unmarshals its payload into v.
// A name mismatch or checksum failure is reported as corruption.
func Decode(name string, data []byte, v any) (Meta, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Meta{}, eris.Wrapf(err, "bundle: %s is corrupt", name)
	}
	if env.Name != name {
		return Meta{}, eris.Errorf("bundle: %s is corrupt: envelope holds %q", name, env.Name)
	}
	if env.Checksum != checksum(env.Payload) {
		return Meta{}, eris.Errorf("bundle: %s is corrupt: checksum mismatch", name)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return Meta{}, eris.Wrapf(err, "bundle: %s payload is corrupt", name)
	}
	return Meta{Name: env.Name, Version: env.Version, SavedAt: env.SavedAt}, nil
}

// SaveJSON encodes v and writes it to st under name.
func SaveJSON(ctx context.Context, st Store, name string, v any) (Meta, error) {
	data, meta, err := Encode(name, v)
	if err != nil {
		return Meta{}, err
	}
	if err := st.Save(ctx, name, data); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// LoadJSON reads name from st and decodes it into v.
func LoadJSON(ctx context.Context, st Store, name string, v any) (Meta, error) {
	data, err := st.Load(ctx, name)
	if err != nil {
		return Meta{}, err
	}
	return Decode(name, data, v)
}

func checksum(payload []byte) string {
	h := sha256.Sum256(payload)
	return fmt.Sprintf("%x", h[:16])
}
