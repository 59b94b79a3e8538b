// Package manifest loads and validates the dugger.yaml project manifest.
// Files are decoded from YAML and checked against an embedded JSON Schema so
// configuration mistakes surface as readable messages instead of downstream
// misbehavior.
package manifest
