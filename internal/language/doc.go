// Package language maps the language codes found in container tags (ISO 639-1,
// both ISO 639-2 variants and English words) onto each other and onto the IETF
// tags used by the catalog language setting.
package language
