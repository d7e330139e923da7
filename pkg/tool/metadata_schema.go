package tool

// MetadataSchema is the JSON Schema applied to tool.meta.yaml documents.
// Unknown keys are allowed so newer metadata files still load.
const MetadataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name": {
      "type": "string",
      "pattern": "\\S",
      "description": "Display name"
    },
    "description": {
      "type": "string",
      "pattern": "\\S",
      "description": "One-line description"
    },
    "icon": {
      "type": "string",
      "pattern": "\\S",
      "description": "Icon glyph, usually a single emoji"
    },
    "version": {
      "type": "string",
      "pattern": "\\S",
      "description": "Semver version"
    },
    "author": {
      "type": "string",
      "pattern": "\\S",
      "description": "Tool author"
    }
  }
}`
