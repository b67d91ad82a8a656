// Package language normalizes the language identifiers attached to
// translation codes. Voice pools and duration-provider routing are keyed by
// ISO 639-1 codes, while configuration may carry regional tags ("es-419"),
// three-letter codes, or plain English names.
package language
