package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot is the complete serialisable ledger state and the unit of
// persistence. Properties and Leases are ordered by id.
type Snapshot struct {
	Users      map[Principal]User `json:"users"`
	Properties []Property         `json:"properties"`
	Leases     []Lease            `json:"leases"`
}

// NewSnapshot returns an empty, normalised snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{
		Users:      map[Principal]User{},
		Properties: []Property{},
		Leases:     []Lease{},
	}
}

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Users:      make(map[Principal]User, len(s.Users)),
		Properties: make([]Property, len(s.Properties)),
		Leases:     make([]Lease, len(s.Leases)),
	}
	for k, v := range s.Users {
		out.Users[k] = v.Clone()
	}
	for i, p := range s.Properties {
		out.Properties[i] = p.Clone()
	}
	for i, l := range s.Leases {
		out.Leases[i] = l.Clone()
	}
	return out
}

// Normalize replaces nil collections so that encoding is stable across a
// save/restore cycle.
func (s Snapshot) Normalize() Snapshot {
	if s.Users == nil {
		s.Users = map[Principal]User{}
	}
	if s.Properties == nil {
		s.Properties = []Property{}
	}
	if s.Leases == nil {
		s.Leases = []Lease{}
	}
	return s.Clone()
}

// Marshal encodes the snapshot as compact JSON. Map keys are sorted by
// encoding/json, so equal snapshots encode to equal bytes.
func (s Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.Normalize()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalSnapshot decodes and normalises a snapshot produced by Marshal.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s.Normalize(), nil
}

// Persistence buckets, one per entity collection.
const (
	BucketUsers      = "users"
	BucketProperties = "properties"
	BucketLeases     = "leases"
)

// SnapshotBuckets lists the buckets in the order adapters write them.
var SnapshotBuckets = []string{BucketUsers, BucketProperties, BucketLeases}

// EncodeBuckets splits the snapshot into one JSON payload per bucket.
func (s Snapshot) EncodeBuckets() (map[string][]byte, error) {
	n := s.Normalize()
	out := make(map[string][]byte, len(SnapshotBuckets))
	for _, bucket := range SnapshotBuckets {
		var (
			data []byte
			err  error
		)
		switch bucket {
		case BucketUsers:
			data, err = json.Marshal(n.Users)
		case BucketProperties:
			data, err = json.Marshal(n.Properties)
		case BucketLeases:
			data, err = json.Marshal(n.Leases)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from bucket payloads. Unknown buckets are
// ignored and missing ones decode as empty.
func DecodeBuckets(payloads map[string][]byte) (Snapshot, error) {
	var s Snapshot
	for bucket, payload := range payloads {
		if len(payload) == 0 {
			continue
		}
		var target any
		switch bucket {
		case BucketUsers:
			target = &s.Users
		case BucketProperties:
			target = &s.Properties
		case BucketLeases:
			target = &s.Leases
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return s.Normalize(), nil
}

// Clone deep-copies the user record.
func (u User) Clone() User {
	cp := u
	cp.RegisteredProperties = cloneSlice(u.RegisteredProperties)
	cp.Investments = cloneSlice(u.Investments)
	return cp
}

// Clone deep-copies the property record.
func (p Property) Clone() Property {
	cp := p
	cp.Amenities = cloneSlice(p.Amenities)
	cp.Images = cloneSlice(p.Images)
	cp.Investors = make(map[Principal]Shares, len(p.Investors))
	for k, v := range p.Investors {
		cp.Investors[k] = v
	}
	return cp
}

// Clone returns a copy of the lease; leases hold no reference fields.
func (l Lease) Clone() Lease { return l }

// cloneSlice always returns a non-nil slice.
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
