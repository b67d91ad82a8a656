// Package generators produces the narrative text fields and affirmation
// quotes from an LLM completer.
//
// NarrativeWriter covers the four narrative fields (camera script,
// reflection, meditation script, visual prompt); each field has its own
// prompt and is generated independently. QuoteWriter produces affirmation
// quotes and rejects candidates that read too much like recent quotes.
package generators
