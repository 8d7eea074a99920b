// Package mount implements the injected mount-table oracle: a
// configuration file mapping path prefixes to the Location that owns
// them, validated against a JSON Schema and hot-reloaded on write.
package mount

// schemaJSON is the JSON Schema every mount-table config file is
// validated against before being accepted.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "dashctl mount table",
  "type": "object",
  "required": ["mounts"],
  "properties": {
    "mounts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["prefix", "location"],
        "properties": {
          "prefix": {"type": "string", "minLength": 1},
          "location": {
            "type": "object",
            "required": ["kind"],
            "properties": {
              "kind": {"type": "string", "enum": ["client", "server"]},
              "ip": {"type": "string"}
            },
            "if": {"properties": {"kind": {"const": "server"}}},
            "then": {"required": ["kind", "ip"]}
          }
        }
      }
    }
  }
}`
